package stats

import (
	"fmt"
	"math"
)

// CorrelationResult is a Pearson correlation matrix, or the
// {error, sample_size, minimum_required, recommendation} leaf spec.md
// 4.8 requires when n < 3.
type CorrelationResult struct {
	Pearson         map[string]map[string]float64 `json:"pearson_correlations,omitempty"`
	VariableCount   int                            `json:"variable_count,omitempty"`
	SampleSize      int                            `json:"sample_size,omitempty"`
	Warnings        []string                       `json:"warnings,omitempty"`
	Error           string                         `json:"error,omitempty"`
	MinimumRequired int                            `json:"minimum_required,omitempty"`
	Recommendation  string                         `json:"recommendation,omitempty"`
}

// correlationMatrix computes Pearson's r between every pair of named
// columns (all must be the same length). n < 3 is statistically
// meaningless and returns an error leaf instead of a matrix; n < 5
// flags any perfect correlation as likely spurious.
func correlationMatrix(columns map[string][]float64) CorrelationResult {
	names := sortedKeys(columns)
	if len(names) < 2 {
		return CorrelationResult{Error: "insufficient variables for correlation analysis"}
	}
	n := len(columns[names[0]])
	if n < 3 {
		return CorrelationResult{
			Error:           fmt.Sprintf("insufficient sample size for correlation analysis (N=%d)", n),
			SampleSize:      n,
			MinimumRequired: 3,
			Recommendation:  "correlations require at least 3 data points to be statistically meaningful",
		}
	}

	pearson := make(map[string]map[string]float64, len(names))
	var warnings []string
	for _, a := range names {
		row := make(map[string]float64, len(names))
		for _, b := range names {
			r := pearsonR(columns[a], columns[b])
			row[b] = r
			if a != b && math.Abs(r) == 1.0 && n < 5 {
				warnings = append(warnings, fmt.Sprintf("perfect correlation (r=%.3f) between %s and %s with small sample (N=%d)", r, a, b, n))
			}
		}
		pearson[a] = row
	}

	return CorrelationResult{
		Pearson:       pearson,
		VariableCount: len(names),
		SampleSize:    n,
		Warnings:      warnings,
	}
}

// pearsonR computes the Pearson correlation coefficient between two
// equal-length series.
func pearsonR(x, y []float64) float64 {
	mx, my := mean(x), mean(y)
	var num, dx2, dy2 float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 == 0 || dy2 == 0 {
		return 0
	}
	return num / (math.Sqrt(dx2) * math.Sqrt(dy2))
}
