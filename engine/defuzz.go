package engine

import "github.com/snow-ghost/fuzzyctl/core"

// peakTolerance decides which samples share the maximum degree.
const peakTolerance = 1e-12

// Defuzzify reduces the aggregated degrees mu over samples xs to one crisp
// value. ok is false when the set is identically zero.
func Defuzzify(m core.DefuzzMethod, xs, mu []float64) (float64, bool) {
	switch m {
	case core.Bisector:
		return bisector(xs, mu)
	case core.MeanOfMaximum, core.SmallestOfMaximum, core.LargestOfMaximum:
		lo, hi, mean, ok := maxima(xs, mu)
		switch m {
		case core.SmallestOfMaximum:
			return lo, ok
		case core.LargestOfMaximum:
			return hi, ok
		default:
			return mean, ok
		}
	default:
		return centroid(xs, mu)
	}
}

// centroid is sum(x*mu) / sum(mu).
func centroid(xs, mu []float64) (float64, bool) {
	var num, den float64
	for i, m := range mu {
		num += xs[i] * m
		den += m
	}
	if den <= 0 {
		return 0, false
	}
	// Rounding may push the quotient a hair past the outermost sample.
	c := num / den
	if c < xs[0] {
		c = xs[0]
	} else if last := xs[len(xs)-1]; c > last {
		c = last
	}
	return c, true
}

// bisector is the first sample at which the running mass reaches half of
// the total.
func bisector(xs, mu []float64) (float64, bool) {
	var total float64
	for _, m := range mu {
		total += m
	}
	if total <= 0 {
		return 0, false
	}
	half := total / 2
	var acc float64
	for i, m := range mu {
		acc += m
		if acc >= half {
			return xs[i], true
		}
	}
	return xs[len(xs)-1], true
}

func maxima(xs, mu []float64) (lo, hi, mean float64, ok bool) {
	peak := 0.0
	for _, m := range mu {
		if m > peak {
			peak = m
		}
	}
	if peak <= 0 {
		return 0, 0, 0, false
	}
	var sum float64
	n := 0
	for i, m := range mu {
		if peak-m > peakTolerance {
			continue
		}
		if n == 0 {
			lo = xs[i]
		}
		hi = xs[i]
		sum += xs[i]
		n++
	}
	return lo, hi, sum / float64(n), true
}
