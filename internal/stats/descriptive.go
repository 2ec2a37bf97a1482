// Package stats implements the Statistical Processor (spec.md 4.8): a
// pure CAS-to-CAS transform over analysis_result artifacts, touching no
// LLM. No statistics library appears anywhere in the example pack, so
// every calculation here is built directly on math/sort, grounded
// algorithm-for-algorithm on original_source's
// discernus/core/universal_statistics_processor.py (pandas/scipy/sklearn
// in the original; math/sort here).
package stats

import (
	"math"
	"sort"
)

// Descriptive is one column's summary statistics.
type Descriptive struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

func descriptive(values []float64) Descriptive {
	n := float64(len(values))
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := sum(values) / n
	std := stdDev(values, mean, 1)

	var skew, kurt float64
	if std > 0 {
		var m3, m4 float64
		for _, v := range values {
			d := v - mean
			m3 += d * d * d
			m4 += d * d * d * d
		}
		m3 /= n
		m4 /= n
		skew = m3 / math.Pow(std*math.Sqrt((n-1)/n), 3)
		kurt = m4/math.Pow(std*math.Sqrt((n-1)/n), 4) - 3
	}

	return Descriptive{
		Mean:     mean,
		Median:   quantile(sorted, 0.5),
		Std:      std,
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Q25:      quantile(sorted, 0.25),
		Q75:      quantile(sorted, 0.75),
		Skewness: skew,
		Kurtosis: kurt,
	}
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// stdDev computes the standard deviation with ddof degrees-of-freedom
// correction (1 matches pandas' default sample std; 0 is population std,
// used for the z-score outlier method).
func stdDev(values []float64, mean float64, ddof int) float64 {
	n := len(values)
	if n-ddof <= 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-ddof))
}

// quantile linearly interpolates the pth quantile of an already-sorted
// slice, matching pandas' default ("linear") interpolation method.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mean(values []float64) float64 {
	return sum(values) / float64(len(values))
}
