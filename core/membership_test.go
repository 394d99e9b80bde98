package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangularDegree(t *testing.T) {
	tri, err := NewTriangular(8, 13, 18)
	require.NoError(t, err)

	for _, x := range []float64{-5, 0, 8, 18, 25, 40} {
		assert.Equal(t, 0.0, tri.Degree(x), "x=%g", x)
	}
	assert.Equal(t, 1.0, tri.Degree(13))
	assert.InDelta(t, 0.4, tri.Degree(10), 1e-12)
	assert.InDelta(t, 0.6, tri.Degree(15), 1e-12)
}

func TestTriangularShoulders(t *testing.T) {
	left := Triangular{A: 0, B: 0, C: 150}
	assert.Equal(t, 1.0, left.Degree(0))
	assert.InDelta(t, 0.5, left.Degree(75), 1e-12)
	assert.Equal(t, 0.0, left.Degree(-1))

	right := Triangular{A: 250, B: 300, C: 300}
	assert.Equal(t, 1.0, right.Degree(300))
	assert.Equal(t, 0.0, right.Degree(301))

	spike := Triangular{A: 5, B: 5, C: 5}
	assert.Equal(t, 1.0, spike.Degree(5))
	assert.Equal(t, 0.0, spike.Degree(4.999))
}

func TestTrapezoidalDegree(t *testing.T) {
	trap, err := NewTrapezoidal(0, 10, 20, 40)
	require.NoError(t, err)

	for x := 10.0; x <= 20; x += 0.5 {
		assert.Equal(t, 1.0, trap.Degree(x), "plateau x=%g", x)
	}
	assert.Equal(t, 0.0, trap.Degree(-1))
	assert.Equal(t, 0.0, trap.Degree(41))

	prev := trap.Degree(0)
	for x := 0.0; x <= 10; x += 0.25 {
		d := trap.Degree(x)
		assert.GreaterOrEqual(t, d, prev, "rising ramp x=%g", x)
		prev = d
	}
	prev = trap.Degree(20)
	for x := 20.0; x <= 40; x += 0.25 {
		d := trap.Degree(x)
		assert.LessOrEqual(t, d, prev, "falling ramp x=%g", x)
		prev = d
	}
}

func TestTrapezoidalDegenerateRamps(t *testing.T) {
	low := Trapezoidal{A: 200, B: 200, C: 400, D: 600}
	assert.Equal(t, 1.0, low.Degree(200))
	assert.Equal(t, 0.0, low.Degree(199))
	assert.InDelta(t, 0.5, low.Degree(500), 1e-12)

	high := Trapezoidal{A: 1400, B: 1600, C: 2000, D: 2000}
	assert.Equal(t, 1.0, high.Degree(2000))
	assert.Equal(t, 0.0, high.Degree(2001))
}

func TestGaussianDegree(t *testing.T) {
	g, err := NewGaussian(18, 2)
	require.NoError(t, err)

	assert.Equal(t, 1.0, g.Degree(18))
	for _, k := range []float64{0.5, 1, 2, 3.7, 10} {
		assert.InDelta(t, g.Degree(18+k), g.Degree(18-k), 1e-15, "k=%g", k)
		assert.Less(t, g.Degree(18+k), 1.0)
	}
	assert.InDelta(t, 0.6065306597126334, g.Degree(20), 1e-12)
}

func TestMembershipValidation(t *testing.T) {
	cases := []struct {
		name string
		fn   func() error
	}{
		{"triangular unordered", func() error { _, err := NewTriangular(3, 2, 4); return err }},
		{"trapezoidal unordered", func() error { _, err := NewTrapezoidal(0, 5, 4, 6); return err }},
		{"gaussian zero sigma", func() error { _, err := NewGaussian(0, 0); return err }},
		{"gaussian negative sigma", func() error { _, err := NewGaussian(0, -1); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.fn(), ErrInvalidParameter)
		})
	}
}

func TestUniverseSamples(t *testing.T) {
	u, err := NewUniverse(0, 40, 1)
	require.NoError(t, err)
	require.Equal(t, 41, u.Len())
	assert.Equal(t, 0.0, u.At(0))
	assert.Equal(t, 40.0, u.At(40))

	odd, err := NewUniverse(0, 1, 0.3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.3, 0.6, 0.8999999999999999, 1}, odd.Samples())

	fine, err := NewUniverse(0, 1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 11, fine.Len())
	assert.Equal(t, 1.0, fine.At(10))
}

func TestUniverseValidation(t *testing.T) {
	_, err := NewUniverse(10, 10, 1)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewUniverse(0, 10, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewUniverse(0, 10, -1)
	require.ErrorIs(t, err, ErrInvalidParameter)

	// grids too large to allocate
	_, err = NewUniverse(0, 1e300, 1e-300)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewUniverse(0, 1, 1e-12)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewUniverse(-1e308, 1e308, 1)
	require.ErrorIs(t, err, ErrInvalidParameter)

	u, err := NewUniverse(0, 1, 1e-5)
	require.NoError(t, err)
	assert.Equal(t, 100001, u.Len())
}

func TestUniverseClamp(t *testing.T) {
	u := MustUniverse(0, 40, 1)

	v, clamped := u.Clamp(50)
	assert.True(t, clamped)
	assert.Equal(t, 40.0, v)

	v, clamped = u.Clamp(-3)
	assert.True(t, clamped)
	assert.Equal(t, 0.0, v)

	v, clamped = u.Clamp(12.5)
	assert.False(t, clamped)
	assert.Equal(t, 12.5, v)
}
