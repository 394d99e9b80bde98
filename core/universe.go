package core

import (
	"fmt"
	"math"
)

// sampleEpsilon absorbs floating point drift when stepping across a universe.
const sampleEpsilon = 1e-9

// MaxSamples bounds the size of a universe grid.
const MaxSamples = 1_000_000

// Universe is the discretized domain of a linguistic variable.
type Universe struct {
	min     float64
	max     float64
	step    float64
	samples []float64
}

// NewUniverse builds the sample grid min, min+step, ... up to max. The max
// bound is always the last sample, even when step does not divide the range.
func NewUniverse(min, max, step float64) (Universe, error) {
	if !finite(min) || !finite(max) || !finite(step) {
		return Universe{}, fmt.Errorf("%w: universe bounds must be finite", ErrInvalidParameter)
	}
	if min >= max {
		return Universe{}, fmt.Errorf("%w: universe min %g must be below max %g", ErrInvalidParameter, min, max)
	}
	if step <= 0 {
		return Universe{}, fmt.Errorf("%w: universe step %g must be positive", ErrInvalidParameter, step)
	}

	q := (max - min) / step
	if !finite(q) || q >= MaxSamples {
		return Universe{}, fmt.Errorf("%w: universe [%g, %g] step %g exceeds %d samples", ErrInvalidParameter, min, max, step, MaxSamples)
	}
	n := int(math.Floor(q + sampleEpsilon))
	samples := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		samples = append(samples, min+float64(i)*step)
	}
	if last := samples[len(samples)-1]; max-last > sampleEpsilon {
		samples = append(samples, max)
	} else {
		samples[len(samples)-1] = max
	}

	return Universe{min: min, max: max, step: step, samples: samples}, nil
}

// MustUniverse is NewUniverse for static declarations; it panics on error.
func MustUniverse(min, max, step float64) Universe {
	u, err := NewUniverse(min, max, step)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Universe) Min() float64  { return u.min }
func (u Universe) Max() float64  { return u.max }
func (u Universe) Step() float64 { return u.step }
func (u Universe) Len() int      { return len(u.samples) }

// Samples returns a copy of the sample points in ascending order.
func (u Universe) Samples() []float64 {
	out := make([]float64, len(u.samples))
	copy(out, u.samples)
	return out
}

// At returns the i-th sample point.
func (u Universe) At(i int) float64 {
	return u.samples[i]
}

// Contains reports whether x lies inside [min, max].
func (u Universe) Contains(x float64) bool {
	return x >= u.min && x <= u.max
}

// Clamp pulls x to the nearest bound when it falls outside the universe and
// reports whether it did so.
func (u Universe) Clamp(x float64) (float64, bool) {
	switch {
	case x < u.min:
		return u.min, true
	case x > u.max:
		return u.max, true
	default:
		return x, false
	}
}

func (u Universe) valid() bool {
	return len(u.samples) > 0
}

func (u Universe) String() string {
	return fmt.Sprintf("[%g, %g] step %g", u.min, u.max, u.step)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
