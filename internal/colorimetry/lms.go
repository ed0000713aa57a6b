package colorimetry

import (
	"math"

	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// Decimal places of log10 LMS values.
const (
	logLMSDecimals     = 5
	logLMSBaseDecimals = 8
)

// CurvePair is a quantity sampled on the result grid and on the 0.1 nm
// plot grid from the same interpolants.
type CurvePair struct {
	Result Curve
	Plot   Curve
}

func (cp CurvePair) bundle() jsonfmt.Bundle {
	return jsonfmt.Bundle{
		{Name: EntryResult, Value: cp.Result.Rows()},
		{Name: EntryPlot, Value: cp.Plot.Rows()},
	}
}

// sampleLMS evaluates the cone fundamental interpolants on grid, rounds to
// the significant figures of the selected precision, and optionally takes
// log10. Exact zeros become -Inf under log.
func sampleLMS(splines [3]*fit.Spline, grid []float64, base, log bool) Curve {
	sf, dp := refdata.LMSSigFigs, logLMSDecimals
	if base {
		sf, dp = refdata.LMSBaseSigFigs, logLMSBaseDecimals
	}
	out := make(Curve, len(grid))
	for i, l := range grid {
		row := []float64{fit.Round(l, 1), 0, 0, 0}
		for c, s := range splines {
			v := fit.Chop(fit.SigFigs(s.At(l), sf))
			if log {
				switch {
				case v == 0:
					v = math.Inf(-1)
				case v > 0:
					v = fit.Round(math.Log10(v), dp)
				}
			}
			row[c+1] = v
		}
		out[i] = row
	}
	return out
}

// lmsPair samples the fundamentals of obs on both grids of p.
func lmsPair(obs *refdata.ObserverData, p Params, base, log bool) (CurvePair, error) {
	splines, err := obs.Splines(base)
	if err != nil {
		return CurvePair{}, err
	}
	return CurvePair{
		Result: sampleLMS(splines, p.SpecGrid(), base, log),
		Plot:   sampleLMS(splines, p.PlotGrid(), base, log),
	}, nil
}

// LMS computes the cone fundamentals in the precision and scale selected
// by p.Base and p.Log.
func (s *Session) LMS() (CurvePair, error) {
	if s.p.Base && !s.p.Log {
		return s.BaseLMS()
	}
	obs, err := s.Observer()
	if err != nil {
		return CurvePair{}, err
	}
	return lmsPair(obs, s.p, s.p.Base, s.p.Log)
}

// BaseLMS returns the linear nine significant figure fundamentals that
// every derived quantity starts from. The result is computed once per
// session.
func (s *Session) BaseLMS() (CurvePair, error) {
	if s.baseLMS != nil {
		return *s.baseLMS, nil
	}
	obs, err := s.Observer()
	if err != nil {
		return CurvePair{}, err
	}
	cp, err := lmsPair(obs, s.p, true, false)
	if err != nil {
		return CurvePair{}, err
	}
	s.baseLMS = &cp
	return cp, nil
}
