package stats

import "fmt"

// ReliabilityResult is a Cronbach's alpha summary, or the statistical-
// validity error leaf spec.md 4.8 requires when n < 3 or fewer than 2
// variables are available.
type ReliabilityResult struct {
	CronbachAlpha   float64 `json:"cronbach_alpha,omitempty"`
	ItemCount       int     `json:"item_count,omitempty"`
	SampleSize      int     `json:"sample_size,omitempty"`
	Interpretation  string  `json:"interpretation,omitempty"`
	Warning         string  `json:"warning,omitempty"`
	Error           string  `json:"error,omitempty"`
	MinimumRequired int     `json:"minimum_required,omitempty"`
	Recommendation  string  `json:"recommendation,omitempty"`
}

// reliability computes Cronbach's alpha: α = (k/(k-1)) * (1 - Σσ²ᵢ/σ²ₜ),
// k the item (column) count, σ²ᵢ each item's variance, σ²ₜ the variance
// of the row sums.
func reliability(columns map[string][]float64) ReliabilityResult {
	names := sortedKeys(columns)
	if len(names) < 2 {
		return ReliabilityResult{Error: "insufficient variables for reliability analysis"}
	}
	n := len(columns[names[0]])
	if n < 3 {
		return ReliabilityResult{
			Error:           fmt.Sprintf("insufficient sample size for reliability analysis (N=%d)", n),
			SampleSize:      n,
			MinimumRequired: 3,
			Recommendation:  "reliability analysis requires at least 3 data points to be statistically meaningful",
		}
	}

	k := len(names)
	var itemVarianceSum float64
	for _, name := range names {
		col := columns[name]
		itemVarianceSum += variance(col, mean(col))
	}

	rowSums := make([]float64, n)
	for _, name := range names {
		col := columns[name]
		for i, v := range col {
			rowSums[i] += v
		}
	}
	totalVariance := variance(rowSums, mean(rowSums))

	var alpha float64
	if totalVariance > 0 {
		alpha = (float64(k) / float64(k-1)) * (1 - itemVarianceSum/totalVariance)
	}

	result := ReliabilityResult{
		CronbachAlpha:  alpha,
		ItemCount:      k,
		SampleSize:     n,
		Interpretation: interpretAlpha(alpha),
	}
	if n < 5 {
		result.Warning = fmt.Sprintf("small sample size (N=%d) - reliability estimates may be unreliable", n)
	}
	return result
}

// variance is the sample variance (ddof=1), matching pandas' default.
func variance(values []float64, mean float64) float64 {
	s := stdDev(values, mean, 1)
	return s * s
}

func interpretAlpha(alpha float64) string {
	switch {
	case alpha >= 0.9:
		return "excellent reliability"
	case alpha >= 0.8:
		return "good reliability"
	case alpha >= 0.7:
		return "acceptable reliability"
	case alpha >= 0.6:
		return "questionable reliability"
	default:
		return "poor reliability"
	}
}
