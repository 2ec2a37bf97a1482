package stats

import "sort"

// sortedKeys returns a column map's keys in stable lexical order so that
// JSON output and iteration order never depend on Go's randomized map
// iteration.
func sortedKeys(columns map[string][]float64) []string {
	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
