package refdata

import (
	"math"

	"github.com/banshee-data/ciefunctions/internal/fit"
)

// Analytic returns smooth closed-form stand-ins for every reference table
// on the same grids as the published data. The CIE 1931 and 1964 tables
// use the multi-lobe fits of Wyman, Sloan and Shirley (2013); the
// photopigment, lens and macular curves are single-lobe approximations.
//
// The results are close to, but not equal to, the tabulated CVRL data.
// They exist for demos and tests on machines without the data files.
func Analytic() *Tables {
	obs := fit.Arange(ObserverMin, ObserverMax, ObserverStep, 0.01, 1)
	std := fit.Arange(StandardMin, StandardMax, StandardStep, 0.01, 0)

	t := &Tables{
		Absorbance: make([][]float64, len(obs)),
		Lens:       make([][]float64, len(obs)),
		Macular:    make([][]float64, len(obs)),
		CIE1931:    make([][]float64, len(std)),
		CIE1964:    make([][]float64, len(std)),
	}
	for i, l := range obs {
		s := logGauss(l, 440, 40)
		if l > 615 {
			s = math.NaN()
		}
		t.Absorbance[i] = []float64{l, logGauss(l, 565, 75), logGauss(l, 535, 65), s}
		t.Lens[i] = []float64{l, 0.6 * math.Exp(-(l-400)/18), 0.1 * math.Exp(-(l-390)/40)}
		t.Macular[i] = []float64{l, math.Exp(-sq((l - 460) / 28))}
	}
	for i, l := range std {
		t.CIE1931[i] = []float64{l, x1931(l), y1931(l), z1931(l)}
		t.CIE1964[i] = []float64{l, x1964(l), y1964(l), z1964(l)}
	}
	return t
}

// logGauss is log10 of a unit-peak Gaussian.
func logGauss(l, mu, w float64) float64 {
	return -sq((l-mu)/w) / math.Ln10
}

func sq(x float64) float64 { return x * x }

// piecewise is a Gaussian with different widths below and above mu.
func piecewise(l, mu, s1, s2 float64) float64 {
	s := s2
	if l < mu {
		s = s1
	}
	return math.Exp(-0.5 * sq((l-mu)/s))
}

func x1931(l float64) float64 {
	return 1.056*piecewise(l, 599.8, 37.9, 31.0) + 0.362*piecewise(l, 442.0, 16.0, 26.7) - 0.065*piecewise(l, 501.1, 20.4, 26.2)
}

func y1931(l float64) float64 {
	return 0.821*piecewise(l, 568.8, 46.9, 40.5) + 0.286*piecewise(l, 530.9, 16.3, 31.1)
}

func z1931(l float64) float64 {
	return 1.217*piecewise(l, 437.0, 11.8, 36.0) + 0.681*piecewise(l, 459.0, 26.0, 13.8)
}

func x1964(l float64) float64 {
	return 0.398*math.Exp(-1250*sq(math.Log((l+570.1)/1014))) + 1.132*math.Exp(-234*sq(math.Log((1338-l)/743.5)))
}

func y1964(l float64) float64 {
	return 1.011 * math.Exp(-0.5*sq((l-556.1)/46.14))
}

func z1964(l float64) float64 {
	if l <= 265.8 {
		return 0
	}
	return 2.060 * math.Exp(-32*sq(math.Log((l-265.8)/180.4)))
}
