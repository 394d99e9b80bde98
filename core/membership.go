package core

import (
	"fmt"
	"math"
)

// MembershipFunction maps a crisp value to a degree of truth in [0, 1].
type MembershipFunction interface {
	Degree(x float64) float64
	Validate() error
	String() string
}

// Triangular rises from A to a peak at B and falls back to zero at C.
type Triangular struct {
	A, B, C float64
}

func NewTriangular(a, b, c float64) (Triangular, error) {
	t := Triangular{A: a, B: b, C: c}
	if err := t.Validate(); err != nil {
		return Triangular{}, err
	}
	return t, nil
}

func (t Triangular) Validate() error {
	if !finite(t.A) || !finite(t.B) || !finite(t.C) {
		return fmt.Errorf("%w: %s has non-finite vertices", ErrInvalidParameter, t)
	}
	if t.A > t.B || t.B > t.C {
		return fmt.Errorf("%w: %s requires a <= b <= c", ErrInvalidParameter, t)
	}
	return nil
}

// Degree is 1 at the peak, including shouldered shapes where the peak
// coincides with a foot.
func (t Triangular) Degree(x float64) float64 {
	switch {
	case x == t.B:
		return 1
	case x <= t.A || x >= t.C:
		return 0
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	default:
		return (t.C - x) / (t.C - t.B)
	}
}

func (t Triangular) String() string {
	return fmt.Sprintf("triangular(%g, %g, %g)", t.A, t.B, t.C)
}

// Trapezoidal rises on [A, B], holds 1 on [B, C] and falls on [C, D].
type Trapezoidal struct {
	A, B, C, D float64
}

func NewTrapezoidal(a, b, c, d float64) (Trapezoidal, error) {
	t := Trapezoidal{A: a, B: b, C: c, D: d}
	if err := t.Validate(); err != nil {
		return Trapezoidal{}, err
	}
	return t, nil
}

func (t Trapezoidal) Validate() error {
	if !finite(t.A) || !finite(t.B) || !finite(t.C) || !finite(t.D) {
		return fmt.Errorf("%w: %s has non-finite vertices", ErrInvalidParameter, t)
	}
	if t.A > t.B || t.B > t.C || t.C > t.D {
		return fmt.Errorf("%w: %s requires a <= b <= c <= d", ErrInvalidParameter, t)
	}
	return nil
}

func (t Trapezoidal) Degree(x float64) float64 {
	switch {
	case x >= t.B && x <= t.C:
		return 1
	case x <= t.A || x >= t.D:
		return 0
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	default:
		return (t.D - x) / (t.D - t.C)
	}
}

func (t Trapezoidal) String() string {
	return fmt.Sprintf("trapezoidal(%g, %g, %g, %g)", t.A, t.B, t.C, t.D)
}

// Gaussian is the bell curve exp(-(x-Mean)^2 / (2 Sigma^2)).
type Gaussian struct {
	Mean, Sigma float64
}

func NewGaussian(mean, sigma float64) (Gaussian, error) {
	g := Gaussian{Mean: mean, Sigma: sigma}
	if err := g.Validate(); err != nil {
		return Gaussian{}, err
	}
	return g, nil
}

func (g Gaussian) Validate() error {
	if !finite(g.Mean) || !finite(g.Sigma) {
		return fmt.Errorf("%w: %s has non-finite parameters", ErrInvalidParameter, g)
	}
	if g.Sigma <= 0 {
		return fmt.Errorf("%w: %s requires sigma > 0", ErrInvalidParameter, g)
	}
	return nil
}

func (g Gaussian) Degree(x float64) float64 {
	d := x - g.Mean
	return math.Exp(-(d * d) / (2 * g.Sigma * g.Sigma))
}

func (g Gaussian) String() string {
	return fmt.Sprintf("gaussian(%g, %g)", g.Mean, g.Sigma)
}
