package refdata

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/ciefunctions/internal/fit"
)

// Precision of the tabulated cone fundamentals in significant figures.
const (
	LMSSigFigs     = 6
	LMSBaseSigFigs = 9
	VSigFigs       = 7
	WeightDecimals = 8
)

// relLWeight is the L-cone weight relative to M in the luminous efficiency
// function of CIE 170-1.
const relLWeight = 1.89

// ObserverData holds the cone fundamentals of one (field size, age)
// observer on the 0.1 nm observer grid. It is immutable after construction
// and safe for concurrent use.
type ObserverData struct {
	FieldSize float64
	Age       int

	// LMS rows are [λ, L, M, S] rounded to LMSSigFigs.
	LMS [][]float64
	// LMSBase rows are [λ, L, M, S] rounded to LMSBaseSigFigs.
	LMSBase [][]float64
	// V rows are [λ, V] with V = KL·L + KM·M of the base fundamentals.
	V [][]float64

	// KL and KM are the luminance weights of L and M.
	KL, KM float64

	splinesOnce sync.Once
	splines     observerSplines
	splinesErr  error
}

type observerSplines struct {
	lms     [3]*fit.Spline
	lmsBase [3]*fit.Spline
	v       *fit.Spline
}

// Observer derives the cone fundamentals for fieldSize degrees and age
// years following the CIE 2006 physiological observer.
func (t *Tables) Observer(fieldSize float64, age int) (*ObserverData, error) {
	n := len(t.Absorbance)
	if n == 0 || len(t.Lens) != n || len(t.Macular) != n {
		return nil, fmt.Errorf("%w: physiological tables missing or misaligned", ErrInvalidTable)
	}

	dLM := 0.38 + 0.54*math.Exp(-fieldSize/1.333)
	dS := 0.30 + 0.45*math.Exp(-fieldSize/1.333)
	dMacMax := 0.485 * math.Exp(-fieldSize/6.132)
	peak := [3]float64{dLM, dLM, dS}

	lambda := make([]float64, n)
	var quantal [3][]float64
	for c := range quantal {
		quantal[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		lambda[i] = t.Absorbance[i][0]
		filter := math.Pow(10, -dMacMax*t.Macular[i][1]-lensDensity(t.Lens[i][1], t.Lens[i][2], age))
		for c := 0; c < 3; c++ {
			logA := t.Absorbance[i][c+1]
			if math.IsNaN(logA) {
				continue
			}
			absorptance := 1 - math.Pow(10, -peak[c]*math.Pow(10, logA))
			quantal[c][i] = absorptance * filter
		}
	}

	var energy [3][]float64
	for c := 0; c < 3; c++ {
		normalizePeak(quantal[c])
		energy[c] = make([]float64, n)
		for i := range energy[c] {
			energy[c][i] = quantal[c][i] * lambda[i]
		}
	}

	// Luminance weights from the unnormalized energy peaks.
	v := make([]float64, n)
	for i := range v {
		v[i] = relLWeight*energy[0][i] + energy[1][i]
	}
	cL, cM, cV := floats.Max(energy[0]), floats.Max(energy[1]), floats.Max(v)
	if cL == 0 || cM == 0 || cV == 0 {
		return nil, fmt.Errorf("%w: zero cone sensitivity for field size %g, age %d", ErrInvalidTable, fieldSize, age)
	}
	kL := fit.Round(relLWeight*cL/cV, WeightDecimals)
	kM := fit.Round(cM/cV, WeightDecimals)

	for c := 0; c < 3; c++ {
		normalizePeak(energy[c])
	}

	d := &ObserverData{
		FieldSize: fieldSize,
		Age:       age,
		LMS:       make([][]float64, n),
		LMSBase:   make([][]float64, n),
		V:         make([][]float64, n),
		KL:        kL,
		KM:        kM,
	}
	for i := 0; i < n; i++ {
		d.LMS[i] = []float64{lambda[i],
			fit.SigFigs(energy[0][i], LMSSigFigs),
			fit.SigFigs(energy[1][i], LMSSigFigs),
			fit.SigFigs(energy[2][i], LMSSigFigs),
		}
		base := []float64{lambda[i],
			fit.SigFigs(energy[0][i], LMSBaseSigFigs),
			fit.SigFigs(energy[1][i], LMSBaseSigFigs),
			fit.SigFigs(energy[2][i], LMSBaseSigFigs),
		}
		d.LMSBase[i] = base
		d.V[i] = []float64{lambda[i], fit.SigFigs(kL*base[1]+kM*base[2], VSigFigs)}
	}
	return d, nil
}

// lensDensity is the optical density of the ocular media for an observer
// of the given age.
func lensDensity(d1, d2 float64, age int) float64 {
	a := float64(age)
	if age <= 60 {
		return d1*(1+0.02*(a-32)) + d2
	}
	return d1*(1.56+0.0667*(a-60)) + d2
}

func normalizePeak(xs []float64) {
	m := floats.Max(xs)
	if m == 0 {
		return
	}
	floats.Scale(1/m, xs)
}

func (d *ObserverData) buildSplines() {
	for c := 0; c < 3; c++ {
		xs := fit.Column(d.LMS, 0)
		s, err := fit.NewSpline(xs, fit.Column(d.LMS, c+1))
		if err != nil {
			d.splinesErr = err
			return
		}
		d.splines.lms[c] = s
		s, err = fit.NewSpline(xs, fit.Column(d.LMSBase, c+1))
		if err != nil {
			d.splinesErr = err
			return
		}
		d.splines.lmsBase[c] = s
	}
	d.splines.v, d.splinesErr = fit.NewSpline(fit.Column(d.V, 0), fit.Column(d.V, 1))
}

// Splines returns the L, M and S interpolants of the normal (base=false)
// or high-precision (base=true) fundamentals. They are built on first use.
func (d *ObserverData) Splines(base bool) ([3]*fit.Spline, error) {
	d.splinesOnce.Do(d.buildSplines)
	if d.splinesErr != nil {
		return [3]*fit.Spline{}, d.splinesErr
	}
	if base {
		return d.splines.lmsBase, nil
	}
	return d.splines.lms, nil
}

// VSpline returns the interpolant of the luminous efficiency function.
func (d *ObserverData) VSpline() (*fit.Spline, error) {
	d.splinesOnce.Do(d.buildSplines)
	return d.splines.v, d.splinesErr
}

// Coarse returns every tenth row of rows, which on the 0.1 nm observer
// grid is the 1 nm grid.
func Coarse(rows [][]float64) [][]float64 {
	out := make([][]float64, 0, len(rows)/10+1)
	for i := 0; i < len(rows); i += 10 {
		out = append(out, rows[i])
	}
	return out
}
