package colorimetry

import (
	"errors"
	"math"

	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

// ErrDegenerateLocus is returned when a locus has too few finite points to
// define a purple line.
var ErrDegenerateLocus = errors.New("colorimetry: degenerate chromaticity locus")

// Plane selects the two coordinate columns of a chromaticity curve that
// span the diagram.
type Plane [2]int

var (
	// PlaneXY is the (x, y) or (l, m) plane.
	PlaneXY = Plane{1, 2}
	// PlaneLS is the MacLeod–Boynton (l, s) plane.
	PlaneLS = Plane{1, 3}
)

// TangentPair holds the two points where the purple line touches the
// spectral locus, short wavelength first.
type TangentPair struct {
	Index  [2]int
	Lambda [2]float64
	Coords [2][2]float64

	// Tristimulus is set when the locus was given with its tristimulus
	// curve.
	Tristimulus    [2][3]float64
	HasTristimulus bool
}

// Chromaticity returns rows [λ, a, b] with λ rounded to lambdaDP and the
// coordinates to dp decimals. A negative precision leaves values as is.
func (tp *TangentPair) Chromaticity(lambdaDP, dp int) [][]float64 {
	out := make([][]float64, 2)
	for i := range out {
		out[i] = []float64{roundIf(tp.Lambda[i], lambdaDP), roundIf(tp.Coords[i][0], dp), roundIf(tp.Coords[i][1], dp)}
	}
	return out
}

// TristimulusRows returns rows [λ, X, Y, Z], rounded like Chromaticity.
func (tp *TangentPair) TristimulusRows(lambdaDP, dp int) [][]float64 {
	out := make([][]float64, 2)
	for i := range out {
		t := tp.Tristimulus[i]
		out[i] = []float64{roundIf(tp.Lambda[i], lambdaDP), roundIf(t[0], dp), roundIf(t[1], dp), roundIf(t[2], dp)}
	}
	return out
}

func roundIf(v float64, dp int) float64 {
	if dp < 0 {
		return v
	}
	return fit.Round(v, dp)
}

// TangentPoints finds the purple line of the chromaticity locus c in plane:
// the line through one point of the short wavelength half and one point of
// the long wavelength half that has the entire locus on one side. When
// tristim is non-nil it must be the tristimulus curve c was projected
// from, and the tristimulus values of the two points are reported too.
func TangentPoints(c Curve, plane Plane, tristim Curve) (*TangentPair, error) {
	n := len(c)
	if n < 4 {
		return nil, ErrDegenerateLocus
	}
	pts := make([][2]float64, n)
	valid := make([]bool, n)
	var cx, cy float64
	count := 0
	for k, r := range c {
		pts[k] = [2]float64{r[plane[0]], r[plane[1]]}
		if isFinite(pts[k][0]) && isFinite(pts[k][1]) {
			valid[k] = true
			cx += pts[k][0]
			cy += pts[k][1]
			count++
		}
	}
	if count < 4 {
		return nil, ErrDegenerateLocus
	}
	centroid := [2]float64{cx / float64(count), cy / float64(count)}

	mid := n / 2
	i, j := firstValid(valid, 0, mid, 1), firstValid(valid, n-1, mid-1, -1)
	if i < 0 || j < 0 {
		return nil, ErrDegenerateLocus
	}

	// s is the side of the directed line short→long end the interior lies on.
	s := 1.0
	if cross(sub(pts[j], pts[i]), sub(centroid, pts[i])) < 0 {
		s = -1
	}

	for iter := 0; iter < n; iter++ {
		ni := extremeAngle(pts, valid, 0, mid, pts[j], centroid, s)
		nj := extremeAngle(pts, valid, mid, n, pts[ni], centroid, -s)
		if ni == i && nj == j {
			break
		}
		i, j = ni, nj
	}

	tp := &TangentPair{
		Index:  [2]int{i, j},
		Lambda: [2]float64{c[i][0], c[j][0]},
		Coords: [2][2]float64{pts[i], pts[j]},
	}
	if tristim != nil {
		if len(tristim) != n {
			return nil, errors.New("colorimetry: tristimulus curve does not match locus")
		}
		for k, idx := range tp.Index {
			r := tristim[idx]
			tp.Tristimulus[k] = [3]float64{r[1], r[2], r[3]}
		}
		tp.HasTristimulus = true
	}
	return tp, nil
}

// extremeAngle returns the index in [lo, hi) whose direction from origin
// has the largest signed angle, times sign, relative to the direction
// from origin to centre.
func extremeAngle(pts [][2]float64, valid []bool, lo, hi int, origin, centre [2]float64, sign float64) int {
	ref := sub(centre, origin)
	best, bestAngle := -1, math.Inf(-1)
	for k := lo; k < hi; k++ {
		if !valid[k] {
			continue
		}
		v := sub(pts[k], origin)
		if v[0] == 0 && v[1] == 0 {
			continue
		}
		a := sign * math.Atan2(cross(ref, v), dot(ref, v))
		if a > bestAngle {
			best, bestAngle = k, a
		}
	}
	return best
}

func firstValid(valid []bool, from, to, step int) int {
	for k := from; k != to; k += step {
		if valid[k] {
			return k
		}
	}
	return -1
}

func sub(a, b [2]float64) [2]float64 { return [2]float64{a[0] - b[0], a[1] - b[1]} }

func cross(a, b [2]float64) float64 { return a[0]*b[1] - a[1]*b[0] }

func dot(a, b [2]float64) float64 { return a[0]*b[0] + a[1]*b[1] }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// PurpleTristimulus extends a tristimulus locus across the purple line.
// For every spectral sample strictly between the tangent wavelengths whose
// line through white crosses the purple line beyond the white point, the
// row [λ, X, Y, Z] is the mixture of the two tangent stimuli with the
// chromaticity of that crossing. λ is the complementary wavelength.
func PurpleTristimulus(xy Curve, white [3]float64, tg [2][4]float64) Curve {
	blue := [3]float64{tg[0][1], tg[0][2], tg[0][3]}
	red := [3]float64{tg[1][1], tg[1][2], tg[1][3]}
	mB := blue[0] + blue[1] + blue[2]
	mR := red[0] + red[1] + red[2]
	pb := Project(blue[0], blue[1], blue[2])
	pr := Project(red[0], red[1], red[2])
	b := [2]float64{pb[0], pb[1]}
	r := [2]float64{pr[0], pr[1]}
	w := [2]float64{white[0], white[1]}
	br := sub(r, b)

	var out Curve
	for _, row := range xy {
		l := row[0]
		if l <= tg[0][0] || l >= tg[1][0] {
			continue
		}
		p := [2]float64{row[1], row[2]}
		d := sub(w, p)
		// Solve p + t·d = b + u·br.
		den := cross(d, br)
		if den == 0 {
			continue
		}
		bp := sub(b, p)
		t := cross(bp, br) / den
		u := cross(bp, d) / den
		if t <= 1 || u < 0 || u > 1 {
			continue
		}
		// Weight of the blue stimulus giving chromaticity b + u·br.
		a := (1 - u) * mR / ((1-u)*mR + u*mB)
		out = append(out, []float64{l,
			a*blue[0] + (1-a)*red[0],
			a*blue[1] + (1-a)*red[1],
			a*blue[2] + (1-a)*red[2],
		})
	}
	return out
}

func tangentBundle(xyzWhite []float64, tg *TangentPair) jsonfmt.Bundle {
	return jsonfmt.Bundle{
		{Name: EntryXYZWhite, Value: xyzWhite},
		{Name: EntryXYZTgPurple, Value: tg.Chromaticity(1, xyDecimals)},
		{Name: EntryXYZTgPurpleT, Value: tg.TristimulusRows(1, xyzTgDecimals)},
	}
}
