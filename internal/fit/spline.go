package fit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// ErrSingular is returned when the spline system cannot be solved.
var ErrSingular = errors.New("fit: singular spline system")

// ErrTooFewPoints is returned when a spline is requested through fewer than
// the three knots a cubic interpolant needs.
var ErrTooFewPoints = errors.New("fit: at least three samples required")

// Spline is an exact-interpolating cubic spline through tabulated samples.
// It passes through every sample and uses the not-a-knot end condition.
//
// The knot slopes come from a tridiagonal system, so a fit is linear in the
// number of samples.
type Spline struct {
	pc     interp.PiecewiseCubic
	lo, hi float64
}

// NewSpline fits a spline through (xs[i], ys[i]). xs must be strictly
// increasing.
func NewSpline(xs, ys []float64) (*Spline, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("fit: length mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return nil, ErrTooFewPoints
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("fit: x values not strictly increasing at index %d (%g <= %g)", i, xs[i], xs[i-1])
		}
	}
	d, err := notAKnotSlopes(xs, ys)
	if err != nil {
		return nil, err
	}
	s := &Spline{lo: xs[0], hi: xs[len(xs)-1]}
	s.pc.FitWithDerivatives(xs, ys, d)
	return s, nil
}

// notAKnotSlopes returns the first derivative at every knot of the
// not-a-knot cubic spline through (xs, ys). Interior rows are the usual
// continuity of the second derivative. The end rows ask for a continuous
// third derivative at the second and the second-to-last knot. With three
// knots the spline is the interpolating parabola.
func notAKnotSlopes(xs, ys []float64) ([]float64, error) {
	n := len(xs)
	h := make([]float64, n-1)
	delta := make([]float64, n-1)
	for i := range h {
		h[i] = xs[i+1] - xs[i]
		delta[i] = (ys[i+1] - ys[i]) / h[i]
	}

	dl := make([]float64, n-1)
	d := make([]float64, n)
	du := make([]float64, n-1)
	b := make([]float64, n)
	for i := 1; i < n-1; i++ {
		dl[i-1] = h[i]
		d[i] = 2 * (h[i-1] + h[i])
		du[i] = h[i-1]
		b[i] = 3 * (h[i]*delta[i-1] + h[i-1]*delta[i])
	}

	if n == 3 {
		d[0], du[0], b[0] = 1, 1, 2*delta[0]
		dl[1], d[2], b[2] = 1, 1, 2*delta[1]
	} else {
		w := xs[2] - xs[0]
		d[0] = h[1]
		du[0] = w
		b[0] = ((h[0]+2*w)*h[1]*delta[0] + h[0]*h[0]*delta[1]) / w

		m := n - 1
		w = xs[m] - xs[m-2]
		dl[m-1] = w
		d[m] = h[m-2]
		b[m] = (h[m-1]*h[m-1]*delta[m-2] + (2*w+h[m-1])*h[m-2]*delta[m-1]) / w
	}

	a := lapack64.Tridiagonal{N: n, DL: dl, D: d, DU: du}
	rhs := blas64.General{Rows: n, Cols: 1, Stride: 1, Data: b}
	if !lapack64.Gtsv(blas.NoTrans, a, rhs) {
		return nil, ErrSingular
	}
	return b, nil
}

// At evaluates the spline at x. Outside the fitted range the value at the
// nearest end is returned.
func (s *Spline) At(x float64) float64 {
	return s.pc.Predict(x)
}

// Eval evaluates the spline at every x.
func (s *Spline) Eval(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = s.pc.Predict(x)
	}
	return out
}

// Domain returns the first and last fitted abscissa.
func (s *Spline) Domain() (lo, hi float64) {
	return s.lo, s.hi
}

// Splines fits one spline per column of a row table whose first column is
// the abscissa. It is the usual way of turning a tabulated colour-matching
// function into continuous channel evaluators.
func Splines(rows [][]float64) ([]*Spline, error) {
	if len(rows) == 0 {
		return nil, ErrTooFewPoints
	}
	cols := len(rows[0])
	xs := Column(rows, 0)
	out := make([]*Spline, 0, cols-1)
	for c := 1; c < cols; c++ {
		s, err := NewSpline(xs, Column(rows, c))
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", c, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Column copies column c of rows.
func Column(rows [][]float64, c int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[c]
	}
	return out
}
