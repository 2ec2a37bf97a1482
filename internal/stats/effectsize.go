package stats

import "math"

// theoreticalMidpoint is the scale centre metrics defined on [0,1] are
// compared against — spec.md 4.8's "theoretical midpoint 0.5".
const theoreticalMidpoint = 0.5

// EffectSize is one metric's Hedges-g effect size against
// theoreticalMidpoint, with the small-sample bias correction applied.
type EffectSize struct {
	HedgesG          float64 `json:"hedges_g"`
	Interpretation   string  `json:"interpretation"`
	Direction        string  `json:"direction"`
	SampleSize       int     `json:"sample_size"`
	CorrectionFactor float64 `json:"correction_factor"`
}

// hedgesG computes Hedges' g only for metrics whose values all lie in
// [0,1] — outside that range the theoretical midpoint comparison is not
// meaningful, matching original_source's same guard.
func hedgesG(values []float64) (EffectSize, bool) {
	if len(values) < 2 {
		return EffectSize{}, false
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo < 0 || hi > 1 {
		return EffectSize{}, false
	}

	m := mean(values)
	s := stdDev(values, m, 1)
	if s == 0 {
		return EffectSize{}, false
	}
	cohensD := (m - theoreticalMidpoint) / s

	n := len(values)
	df := n - 1
	correction := 1.0
	if df > 1 {
		correction = 1 - 3/(4*float64(df)-1)
	}
	g := cohensD * correction

	direction := "above_midpoint"
	if g <= 0 {
		direction = "below_midpoint"
	}

	return EffectSize{
		HedgesG:          g,
		Interpretation:   interpretHedgesG(g),
		Direction:        direction,
		SampleSize:       n,
		CorrectionFactor: correction,
	}, true
}

func interpretHedgesG(g float64) string {
	abs := math.Abs(g)
	switch {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}
