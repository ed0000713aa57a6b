package colorimetry

import (
	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// Published equal-energy white points of the standard observers.
var (
	White1931 = [3]float64{0.33331, 0.33329, 0.33340}
	White1964 = [3]float64{0.33330, 0.33333, 0.33337}
)

// StandardWhite returns the published white point of the 2° (1931) or
// 10° (1964) standard observer.
func StandardWhite(fieldSize float64) ([3]float64, error) {
	switch fieldSize {
	case 2:
		return White1931, nil
	case 10:
		return White1964, nil
	}
	return [3]float64{}, refdata.ErrStandardObserver
}

// standardXYZ returns the tabulated standard observer selected by the
// session field size and its 0.1 nm interpolation.
func (s *Session) standardXYZ() (CurvePair, error) {
	table, err := s.engine.Tables().Standard(s.p.FieldSize)
	if err != nil {
		return CurvePair{}, err
	}
	splines, err := fit.Splines(table)
	if err != nil {
		return CurvePair{}, err
	}
	grid := fit.Arange(refdata.StandardMin, refdata.StandardMax, PlotStep, gridGuard, 1)
	plot := newCurve(grid,
		fit.SigFigsAll(splines[0].Eval(grid), xyzSigFigs),
		fit.SigFigsAll(splines[1].Eval(grid), xyzSigFigs),
		fit.SigFigsAll(splines[2].Eval(grid), xyzSigFigs),
	)
	return CurvePair{Result: Curve(table).Clone(), Plot: plot}, nil
}

// XYZStandard returns the CIE 1931 or 1964 colour-matching functions.
func (s *Session) XYZStandard() (jsonfmt.Bundle, error) {
	cp, err := s.standardXYZ()
	if err != nil {
		return nil, err
	}
	return cp.bundle(), nil
}

// XYStandard returns the CIE 1931 or 1964 chromaticity diagram, or the
// published white point and the purple line tangent points in info mode.
func (s *Session) XYStandard() (jsonfmt.Bundle, error) {
	cp, err := s.standardXYZ()
	if err != nil {
		return nil, err
	}
	plot := ChromaticityCurve(cp.Plot)
	if s.p.Info {
		white, err := StandardWhite(s.p.FieldSize)
		if err != nil {
			return nil, err
		}
		tg, err := TangentPoints(plot, PlaneXY, nil)
		if err != nil {
			return nil, err
		}
		return jsonfmt.Bundle{
			{Name: EntryWhite, Value: white[:]},
			{Name: EntryTgPurple, Value: tg.Chromaticity(-1, xyDecimals)},
		}, nil
	}
	return CurvePair{
		Result: ChromaticityCurve(cp.Result).RoundChannels(xyDecimals),
		Plot:   plot,
	}.bundle(), nil
}
