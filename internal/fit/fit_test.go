package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/interp"
)

func TestRound(t *testing.T) {
	testCases := []struct {
		name     string
		x        float64
		n        int
		expected float64
	}{
		{"half_up", 2.5, 0, 3},
		{"half_away_negative", -2.5, 0, -3},
		{"exact_half_two_places", 0.125, 2, 0.13},
		{"truncate_down", 0.12345, 3, 0.123},
		{"negative_places", 123456.7, -3, 123000},
		{"zero", 0, 8, 0},
		{"wavelength", 390.00000000001, 1, 390},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Round(tc.x, tc.n), 1e-12)
		})
	}
}

func TestRoundNonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Round(math.NaN(), 3)))
	assert.True(t, math.IsInf(Round(math.Inf(-1), 3), -1))
	assert.True(t, math.IsInf(SigFigs(math.Inf(1), 3), 1))
}

func TestSigFigs(t *testing.T) {
	testCases := []struct {
		name     string
		x        float64
		n        int
		expected float64
	}{
		{"large", 123456.7, 3, 123000},
		{"small", 0.000123456, 3, 0.000123},
		{"unit", 1.23456789, 6, 1.23457},
		{"negative", -0.98765, 2, -0.99},
		{"zero_stays_zero", 0, 7, 0},
		{"carry_into_next_decade", 9.9999999, 6, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, SigFigs(tc.x, tc.n), 1e-15*math.Max(1, math.Abs(tc.expected)))
		})
	}
}

func TestChop(t *testing.T) {
	assert.Equal(t, 0.0, Chop(1e-15))
	assert.Equal(t, 0.0, Chop(-9e-15))
	assert.Equal(t, 1e-13, Chop(1e-13))
}

func TestArange(t *testing.T) {
	t.Run("default_spec_grid", func(t *testing.T) {
		g := Arange(390, 830, 1, 0.01, -1)
		require.Len(t, g, 441)
		assert.Equal(t, 390.0, g[0])
		assert.Equal(t, 830.0, g[len(g)-1])
	})

	t.Run("plot_grid", func(t *testing.T) {
		g := Arange(390, 700, 0.1, 0.01, 1)
		require.Len(t, g, 3101)
		assert.Equal(t, 390.1, g[1])
		assert.Equal(t, 700.0, g[len(g)-1])
	})

	t.Run("step_does_not_divide_range", func(t *testing.T) {
		g := Arange(390, 830, 0.3, 0.01, -1)
		require.Len(t, g, 1467)
		assert.InDelta(t, 829.8, g[len(g)-1], 1e-9)
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Nil(t, Arange(400, 390, 1, 0.01, 1))
		assert.Nil(t, Arange(390, 400, 0, 0.01, 1))
	})
}

func TestSplineInterpolatesKnots(t *testing.T) {
	xs := []float64{390, 391, 392, 393, 394, 395}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		d := x - 390
		ys[i] = 0.5*d*d*d - 2*d*d + d + 3
	}

	s, err := NewSpline(xs, ys)
	require.NoError(t, err)

	for i, x := range xs {
		assert.InDelta(t, ys[i], s.At(x), 1e-9, "knot %v", x)
	}

	// A not-a-knot spline reproduces a cubic exactly between the knots.
	d := 2.5
	assert.InDelta(t, 0.5*d*d*d-2*d*d+d+3, s.At(392.5), 1e-9)

	lo, hi := s.Domain()
	assert.Equal(t, 390.0, lo)
	assert.Equal(t, 395.0, hi)
	assert.Len(t, s.Eval([]float64{390.5, 391.5}), 2)
}

func TestSplineEndConditions(t *testing.T) {
	cubic := func(x float64) float64 { return x*x*x - x }
	testCases := []struct {
		name string
		xs   []float64
		f    func(float64) float64
		at   []float64
	}{
		{"three_knots_parabola", []float64{0, 1, 3}, func(x float64) float64 { return x * x }, []float64{0.5, 2, 2.5}},
		{"four_knots_cubic", []float64{0, 1, 2, 3}, cubic, []float64{0.25, 1.5, 2.75}},
		{"uneven_cubic", []float64{0, 0.5, 2, 2.5, 4, 7}, cubic, []float64{0.1, 1, 3, 5.5, 6.9}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ys := make([]float64, len(tc.xs))
			for i, x := range tc.xs {
				ys[i] = tc.f(x)
			}
			s, err := NewSpline(tc.xs, ys)
			require.NoError(t, err)
			for _, x := range tc.at {
				assert.InDelta(t, tc.f(x), s.At(x), 1e-9, "at %g", x)
			}
			// Outside the knots the end values hold.
			assert.Equal(t, ys[0], s.At(tc.xs[0]-1))
			assert.Equal(t, ys[len(ys)-1], s.At(tc.xs[len(tc.xs)-1]+1))
		})
	}
}

func TestSplineMatchesDenseNotAKnot(t *testing.T) {
	xs := Arange(390, 430, 0.5, 0.01, 1)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Exp(-0.5*math.Pow((x-410)/6, 2)) + 0.01*math.Sin(3*x)
	}

	s, err := NewSpline(xs, ys)
	require.NoError(t, err)
	var dense interp.NotAKnotCubic
	require.NoError(t, dense.Fit(xs, ys))

	for x := 390.0; x <= 430; x += 0.13 {
		assert.InDelta(t, dense.Predict(x), s.At(x), 1e-9, "at %g", x)
	}
}

func TestSplineObserverGrid(t *testing.T) {
	// The 0.1 nm observer grid from 390 to 830 nm.
	xs := Arange(390, 830, 0.1, 0.01, 1)
	require.Len(t, xs, 4401)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Sin(x / 25)
	}

	s, err := NewSpline(xs, ys)
	require.NoError(t, err)
	for i := 0; i < len(xs); i += 97 {
		assert.InDelta(t, ys[i], s.At(xs[i]), 1e-12, "knot %g", xs[i])
	}
	for _, x := range []float64{390.05, 555.55, 829.95} {
		assert.InDelta(t, math.Sin(x/25), s.At(x), 1e-9, "at %g", x)
	}
}

func TestSplineErrors(t *testing.T) {
	_, err := NewSpline([]float64{1, 2}, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrTooFewPoints))

	_, err = NewSpline([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err)

	_, err = NewSpline([]float64{1, 3, 2}, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestSplines(t *testing.T) {
	rows := [][]float64{
		{1, 1, 10},
		{2, 4, 20},
		{3, 9, 30},
		{4, 16, 40},
	}
	ss, err := Splines(rows)
	require.NoError(t, err)
	require.Len(t, ss, 2)
	assert.InDelta(t, 6.25, ss[0].At(2.5), 1e-9)
	assert.InDelta(t, 25, ss[1].At(2.5), 1e-9)
	assert.Equal(t, []float64{10, 20, 30, 40}, Column(rows, 2))
}

func TestMinimize1D(t *testing.T) {
	f := func(x float64) float64 { return (x - 0.4123) * (x - 0.4123) }
	x, fx, err := Minimize1D(f, 0.39, DefaultMinimizeSettings())
	require.NoError(t, err)
	assert.InDelta(t, 0.4123, x, 1e-4)
	assert.Less(t, fx, 1e-8)
}
