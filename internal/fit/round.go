// Package fit provides the numeric primitives used by the colorimetry
// pipeline: exact-fit cubic splines, a derivative-free one-dimensional
// minimizer, and the CIE rounding rules applied to every tabulated result.
package fit

import "math"

// ChopEpsilon is the magnitude below which Chop replaces values by zero.
const ChopEpsilon = 1e-14

// Round rounds x to n decimal places using round half away from zero, the
// rounding scheme prescribed by CIE 170. Non-finite values are returned
// unchanged.
func Round(x float64, n int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	var r float64
	if n >= 0 {
		scale := math.Pow(10, float64(n))
		r = math.Floor(math.Abs(x)*scale+0.5) / scale
	} else {
		scale := math.Pow(10, float64(-n))
		r = math.Floor(math.Abs(x)/scale+0.5) * scale
	}
	if x < 0 {
		return -r
	}
	return r
}

// SigFigs rounds x to n significant figures. Zero stays zero.
func SigFigs(x float64, n int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	exp := int(math.Floor(math.Log10(math.Abs(x))))
	return Round(x, n-1-exp)
}

// Chop returns 0 for |x| < ChopEpsilon and x otherwise.
func Chop(x float64) float64 {
	if math.Abs(x) < ChopEpsilon {
		return 0
	}
	return x
}

// RoundAll rounds every element of xs in place to n decimals and returns xs.
func RoundAll(xs []float64, n int) []float64 {
	for i, x := range xs {
		xs[i] = Round(x, n)
	}
	return xs
}

// SigFigsAll rounds every element of xs in place to n significant figures
// and returns xs.
func SigFigsAll(xs []float64, n int) []float64 {
	for i, x := range xs {
		xs[i] = SigFigs(x, n)
	}
	return xs
}

// Arange returns min, min+step, ... up to and including max+guard. When
// decimals is non-negative every value is rounded to that many places. The
// guard absorbs accumulated floating point error at the upper bound.
func Arange(min, max, step, guard float64, decimals int) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	n := int(math.Ceil((max + guard - min) / step))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := min + float64(i)*step
		if v > max+guard {
			break
		}
		if decimals >= 0 {
			v = Round(v, decimals)
		}
		out = append(out, v)
	}
	return out
}
