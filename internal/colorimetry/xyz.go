package colorimetry

import (
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

// Precision of XYZ and xy outputs.
const (
	xyzSigFigs    = 7
	xyDecimals    = 5
	xyzTgDecimals = 7
)

// tristimulus returns the XYZ functions of the session observer under the
// plain or renormalized matrix, rounded to seven significant figures.
func (s *Session) tristimulus() (CurvePair, error) {
	t, err := s.Transform()
	if err != nil {
		return CurvePair{}, err
	}
	base, err := s.BaseLMS()
	if err != nil {
		return CurvePair{}, err
	}
	m := t.For(s.p.Norm)
	return CurvePair{
		Result: TransformCurve(m, base.Result).SigFigChannels(xyzSigFigs),
		Plot:   TransformCurve(m, base.Plot).SigFigChannels(xyzSigFigs),
	}, nil
}

// XYZ computes the cone-fundamental-based tristimulus functions, or the
// transformation matrix in info mode.
func (s *Session) XYZ() (jsonfmt.Bundle, error) {
	if s.p.Info {
		t, err := s.Transform()
		if err != nil {
			return nil, err
		}
		return jsonfmt.Bundle{{Name: EntryTransMat, Value: t.For(s.p.Norm).Rows()}}, nil
	}
	cp, err := s.tristimulus()
	if err != nil {
		return nil, err
	}
	return cp.bundle(), nil
}

// xyInfo is the white point and purple line of the xy diagram.
type xyInfo struct {
	white    [3]float64
	whiteRnd []float64
	tangents *TangentPair
}

func (s *Session) chromaticities() (CurvePair, *xyInfo, error) {
	xyz, err := s.tristimulus()
	if err != nil {
		return CurvePair{}, nil, err
	}
	plot := ChromaticityCurve(xyz.Plot)
	tg, err := TangentPoints(plot, PlaneXY, xyz.Plot)
	if err != nil {
		return CurvePair{}, nil, err
	}
	white := WhitePoint(xyz.Result)
	info := &xyInfo{
		white:    white,
		whiteRnd: roundTriple(white, xyDecimals),
		tangents: tg,
	}
	return CurvePair{
		Result: ChromaticityCurve(xyz.Result).RoundChannels(xyDecimals),
		Plot:   plot,
	}, info, nil
}

// XY computes the cone-fundamental-based xy chromaticity diagram, or its
// white point and purple line tangent points in info mode.
func (s *Session) XY() (jsonfmt.Bundle, error) {
	cp, info, err := s.chromaticities()
	if err != nil {
		return nil, err
	}
	if s.p.Info {
		return tangentBundle(info.whiteRnd, info.tangents), nil
	}
	return cp.bundle(), nil
}

// purples extends the XYZ functions across the purple line. The result
// curve is derived from the reported (rounded) white point and tangent
// stimuli, the plot curve from their exact values.
func (s *Session) purples() (CurvePair, error) {
	cp, info, err := s.chromaticities()
	if err != nil {
		return CurvePair{}, err
	}
	var w [3]float64
	copy(w[:], info.whiteRnd)
	return CurvePair{
		Result: PurpleTristimulus(cp.Result, w, tangentStimuli(info.tangents, xyzTgDecimals)).SigFigChannels(xyzSigFigs),
		Plot:   PurpleTristimulus(cp.Plot, info.white, tangentStimuli(info.tangents, -1)),
	}, nil
}

func tangentStimuli(tg *TangentPair, dp int) [2][4]float64 {
	rows := tg.TristimulusRows(1, dp)
	var out [2][4]float64
	for i := range out {
		copy(out[i][:], rows[i])
	}
	return out
}

// XYZPurple computes tristimulus functions of purple-line stimuli. In info
// mode it reports the transformation matrix like XYZ.
func (s *Session) XYZPurple() (jsonfmt.Bundle, error) {
	if s.p.Info {
		return s.XYZ()
	}
	cp, err := s.purples()
	if err != nil {
		return nil, err
	}
	return cp.bundle(), nil
}

// XYPurple computes the chromaticities of purple-line stimuli. In info
// mode it reports the white point and tangent points like XY.
func (s *Session) XYPurple() (jsonfmt.Bundle, error) {
	if s.p.Info {
		return s.XY()
	}
	cp, err := s.purples()
	if err != nil {
		return nil, err
	}
	return CurvePair{
		Result: ChromaticityCurve(cp.Result).RoundChannels(xyDecimals),
		Plot:   ChromaticityCurve(cp.Plot),
	}.bundle(), nil
}
