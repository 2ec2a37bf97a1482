package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes: 0 success, 1 any component failure, 2 pre-flight
// failure, 3 budget exceeded.
const (
	ExitSuccess            = 0
	ExitComponentFailure   = 1
	ExitPreflightFailure   = 2
	ExitBudgetExceeded     = 3
)

var rootCmd = &cobra.Command{
	Use:   "discernus",
	Short: "Run the Discernus experiment execution core",
	Long:  "discernus executes computational social science experiments: framework-driven document analysis, adversarial verification, statistics, and synthesis, all backed by a content-addressable artifact store.",
}

// Execute runs the configured command and returns the process exit
// code — never os.Exit directly, so tests can call it in-process.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, friendlyError(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitCodeFor maps a command error to spec.md 6's three failure exit
// codes, defaulting to the generic component-failure code for anything
// it doesn't specifically recognize.
func exitCodeFor(err error) int {
	var stageErr *stageError
	if stage, ok := err.(*stageError); ok {
		stageErr = stage
	}
	if stageErr == nil {
		return ExitComponentFailure
	}
	switch stageErr.stage {
	case "transaction_integrity", "load":
		return ExitPreflightFailure
	case "budget":
		return ExitBudgetExceeded
	default:
		return ExitComponentFailure
	}
}

// stageError adapts orchestrator.Aborted (and any other staged
// failure) into a CLI-facing error that names the failing stage, the
// last successful artifact hash, and remediation guidance.
type stageError struct {
	stage              string
	reason             string
	lastSuccessfulHash string
	guidance           []string
}

func (e *stageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed: %s", e.stage, e.reason)
	if e.lastSuccessfulHash != "" {
		fmt.Fprintf(&b, "\nlast successful artifact: %s", e.lastSuccessfulHash)
	}
	for _, g := range e.guidance {
		fmt.Fprintf(&b, "\n  - %s", g)
	}
	return b.String()
}

// friendlyError strips anything that looks like a credential out of an
// error's text before it reaches the terminal.
func friendlyError(err error) string {
	msg := err.Error()
	msg = apiKeyPattern.ReplaceAllString(msg, "[REDACTED]")
	return msg
}

var apiKeyPattern = regexp.MustCompile(`(sk|AIza)[-_][A-Za-z0-9]{16,}`)
