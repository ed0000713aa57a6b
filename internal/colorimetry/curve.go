package colorimetry

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/ciefunctions/internal/fit"
)

// Curve is a sampled function of wavelength. Each row is [λ, c1, c2, c3]
// with strictly increasing λ.
type Curve [][]float64

// Rows returns c as a plain table.
func (c Curve) Rows() [][]float64 { return [][]float64(c) }

// Column copies column i of c. Column 0 is the wavelength.
func (c Curve) Column(i int) []float64 { return fit.Column(c, i) }

// Wavelengths copies the wavelength column.
func (c Curve) Wavelengths() []float64 { return c.Column(0) }

// Sums returns the sum of each of the three channels.
func (c Curve) Sums() [3]float64 {
	var s [3]float64
	for i := range s {
		s[i] = floats.Sum(c.Column(i + 1))
	}
	return s
}

// Clone returns a deep copy of c.
func (c Curve) Clone() Curve {
	out := make(Curve, len(c))
	for i, r := range c {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// MapChannels returns a copy of c with f applied to every channel value.
// Wavelengths are copied unchanged.
func (c Curve) MapChannels(f func(float64) float64) Curve {
	out := c.Clone()
	for _, r := range out {
		for j := 1; j < len(r); j++ {
			r[j] = f(r[j])
		}
	}
	return out
}

// RoundChannels rounds every channel value to n decimals.
func (c Curve) RoundChannels(n int) Curve {
	return c.MapChannels(func(v float64) float64 { return fit.Round(v, n) })
}

// SigFigChannels rounds every channel value to n significant figures.
func (c Curve) SigFigChannels(n int) Curve {
	return c.MapChannels(func(v float64) float64 { return fit.SigFigs(v, n) })
}

// Index returns the row index whose wavelength equals lambda to 0.01 nm,
// or -1.
func (c Curve) Index(lambda float64) int {
	for i, r := range c {
		if math.Abs(r[0]-lambda) < 0.005 {
			return i
		}
	}
	return -1
}

// newCurve assembles a curve from a wavelength grid and three channels.
func newCurve(grid []float64, a, b, c []float64) Curve {
	out := make(Curve, len(grid))
	for i, l := range grid {
		out[i] = []float64{l, a[i], b[i], c[i]}
	}
	return out
}

// Project returns the chromaticity coordinates of the tristimulus value
// (a, b, c). A zero sum gives NaN coordinates.
func Project(a, b, c float64) [3]float64 {
	sum := a + b + c
	if sum == 0 {
		nan := math.NaN()
		return [3]float64{nan, nan, nan}
	}
	return [3]float64{a / sum, b / sum, c / sum}
}

// ChromaticityCurve projects every row of c onto the unit plane:
// [λ, A/(A+B+C), B/(A+B+C), C/(A+B+C)].
func ChromaticityCurve(c Curve) Curve {
	out := make(Curve, len(c))
	for i, r := range c {
		p := Project(r[1], r[2], r[3])
		out[i] = []float64{r[0], p[0], p[1], p[2]}
	}
	return out
}

// WhitePoint returns the chromaticity of the equal-energy stimulus, the
// projection of the channel sums of c.
func WhitePoint(c Curve) [3]float64 {
	s := c.Sums()
	return Project(s[0], s[1], s[2])
}

// Matrix is a 3×3 linear map acting on channel triples.
type Matrix [3][3]float64

// Apply returns m·v.
func (m Matrix) Apply(v [3]float64) [3]float64 {
	var out [3]float64
	for i := range out {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

// Rows returns m as a table.
func (m Matrix) Rows() [][]float64 {
	return [][]float64{m[0][:], m[1][:], m[2][:]}
}

// Round rounds every entry to n decimals.
func (m Matrix) Round(n int) Matrix {
	for i := range m {
		for j := range m[i] {
			m[i][j] = fit.Round(m[i][j], n)
		}
	}
	return m
}

// TransformCurve applies m to the channels of every row of c.
func TransformCurve(m Matrix, c Curve) Curve {
	out := make(Curve, len(c))
	for i, r := range c {
		v := m.Apply([3]float64{r[1], r[2], r[3]})
		out[i] = []float64{r[0], v[0], v[1], v[2]}
	}
	return out
}

func roundTriple(v [3]float64, n int) []float64 {
	return []float64{fit.Round(v[0], n), fit.Round(v[1], n), fit.Round(v[2], n)}
}
