package colorimetry

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// ReferenceSystem gives the target spectral chromaticities of the
// transformation solver: the CIE 1931 and 1964 loci blended by field size,
// with wavelength scales aligned at characteristic points.
type ReferenceSystem struct {
	alpha float64
	knots []float64
	std   [2]*stdLocus
}

// The characteristic points of a locus are searched only inside this
// window. The tails of the tables are too flat to rank.
const (
	knotSearchMin = 450.0
	knotSearchMax = 560.0
)

type stdLocus struct {
	knots []float64
	x, y  *fit.Spline
}

func newStdLocus(table [][]float64) (*stdLocus, error) {
	xy := ChromaticityCurve(Curve(table))
	lambda := xy.Wavelengths()
	xs, ys := xy.Column(1), xy.Column(2)

	sx, err := fit.NewSpline(lambda, xs)
	if err != nil {
		return nil, err
	}
	sy, err := fit.NewSpline(lambda, ys)
	if err != nil {
		return nil, err
	}
	lo := sort.SearchFloat64s(lambda, knotSearchMin)
	hi := sort.SearchFloat64s(lambda, knotSearchMax)
	if hi >= len(lambda) || hi-lo < 1 {
		return nil, fmt.Errorf("colorimetry: locus does not cover %g–%g nm", knotSearchMin, knotSearchMax)
	}
	hi++
	return &stdLocus{
		knots: []float64{
			refdata.StandardMin,
			lambda[lo+floats.MinIdx(xs[lo:hi])],
			lambda[lo+floats.MaxIdx(ys[lo:hi])],
			700,
			refdata.StandardMax,
		},
		x: sx,
		y: sy,
	}, nil
}

// NewReferenceSystem builds the reference locus for fieldSize degrees. A
// 2° field gives the CIE 1931 locus and a 10° field the CIE 1964 locus;
// other sizes interpolate (or extrapolate) linearly between them.
func NewReferenceSystem(t *refdata.Tables, fieldSize float64) (*ReferenceSystem, error) {
	l31, err := newStdLocus(t.CIE1931)
	if err != nil {
		return nil, fmt.Errorf("CIE 1931 locus: %w", err)
	}
	l64, err := newStdLocus(t.CIE1964)
	if err != nil {
		return nil, fmt.Errorf("CIE 1964 locus: %w", err)
	}
	alpha := (fieldSize - 2) / 8
	knots := make([]float64, len(l31.knots))
	for i := range knots {
		knots[i] = (1-alpha)*l31.knots[i] + alpha*l64.knots[i]
	}
	if !sort.Float64sAreSorted(knots) {
		return nil, fmt.Errorf("colorimetry: reference knots not increasing: %v", knots)
	}
	return &ReferenceSystem{alpha: alpha, knots: knots, std: [2]*stdLocus{l31, l64}}, nil
}

// Knots returns the characteristic wavelengths of the blended locus.
func (r *ReferenceSystem) Knots() []float64 {
	return append([]float64(nil), r.knots...)
}

// Vertex returns the blue vertex of the reference locus, the point of
// smallest x between 450 and 560 nm. It lies on the blended x-minimum knot.
func (r *ReferenceSystem) Vertex() (lambda, x, y float64) {
	lambda = r.knots[1]
	x, y = r.At(lambda)
	return lambda, x, y
}

// At returns the reference chromaticity (x, y) at lambda.
func (r *ReferenceSystem) At(lambda float64) (float64, float64) {
	var x, y float64
	for k, w := range [2]float64{1 - r.alpha, r.alpha} {
		if w == 0 {
			continue
		}
		l := warp(lambda, r.knots, r.std[k].knots)
		x += w * r.std[k].x.At(l)
		y += w * r.std[k].y.At(l)
	}
	return x, y
}

// warp maps lambda piecewise linearly from the from knots onto the to
// knots.
func warp(lambda float64, from, to []float64) float64 {
	n := len(from)
	s := sort.SearchFloat64s(from, lambda) - 1
	if s < 0 {
		s = 0
	}
	if s > n-2 {
		s = n - 2
	}
	t := (lambda - from[s]) / (from[s+1] - from[s])
	return to[s] + t*(to[s+1]-to[s])
}
