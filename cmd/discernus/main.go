// Package main provides the command-line interface for the discernus
// experiment execution core.
package main

import "os"

func main() {
	os.Exit(Execute())
}
