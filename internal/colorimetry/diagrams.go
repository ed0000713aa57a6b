package colorimetry

import (
	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

// Decimal places of diagram coordinates and white points.
const diagramDecimals = 6

// MacLeodBoynton computes the ls chromaticity diagram: each cone signal
// divided by luminance, with S scaled so that its maximum ratio to V is 1.
func (s *Session) MacLeodBoynton() (jsonfmt.Bundle, error) {
	base, err := s.BaseLMS()
	if err != nil {
		return nil, err
	}
	obs, err := s.Observer()
	if err != nil {
		return nil, err
	}
	vSpline, err := obs.VSpline()
	if err != nil {
		return nil, err
	}

	kL, kM := obs.KL, obs.KM
	kS := sRatioScale(fit.Column(obs.LMSBase, 3), fit.Column(obs.V, 1))

	plot := make(Curve, len(base.Plot))
	for i, r := range base.Plot {
		v := fit.SigFigs(kL*r[1]+kM*r[2], 7)
		plot[i] = []float64{r[0], kL * r[1] / v, kM * r[2] / v, kS * r[3] / v}
	}

	if s.p.Info {
		sum := base.Result.Sums()
		e := [3]float64{kL * sum[0], kM * sum[1], kS * sum[2]}
		vE := fit.SigFigs(e[0]+e[1], 7)
		white := [3]float64{e[0] / vE, e[1] / vE, e[2] / vE}

		tg, err := TangentPoints(plot, PlaneLS, nil)
		if err != nil {
			return nil, err
		}
		return jsonfmt.Bundle{
			{Name: EntryNorm, Value: []float64{kL, kM, kS}},
			{Name: EntryWhite, Value: roundTriple(white, diagramDecimals)},
			{Name: EntryTgPurple, Value: tg.Chromaticity(1, diagramDecimals)},
		}, nil
	}

	result := make(Curve, len(base.Result))
	for i, r := range base.Result {
		v := vSpline.At(r[0])
		result[i] = []float64{r[0],
			fit.Round(kL*r[1]/v, diagramDecimals),
			fit.Round(kM*r[2]/v, diagramDecimals),
			fit.Round(kS*r[3]/v, diagramDecimals),
		}
	}
	return CurvePair{Result: result, Plot: plot}.bundle(), nil
}

// sRatioScale returns 1/max(S/V) over the samples where V is positive.
func sRatioScale(sv, vv []float64) float64 {
	m := 0.0
	for i := range sv {
		if vv[i] > 0 && sv[i]/vv[i] > m {
			m = sv[i] / vv[i]
		}
	}
	if m == 0 {
		return 0
	}
	return 1 / m
}

// Maxwellian computes the lm chromaticity diagram of the fundamentals
// renormalized to equal area.
func (s *Session) Maxwellian() (jsonfmt.Bundle, error) {
	base, err := s.BaseLMS()
	if err != nil {
		return nil, err
	}

	specN, k := equalArea(base.Result)
	plotN, _ := equalArea(base.Plot)
	plot := ChromaticityCurve(plotN)

	if s.p.Info {
		tg, err := TangentPoints(plot, PlaneXY, nil)
		if err != nil {
			return nil, err
		}
		return jsonfmt.Bundle{
			{Name: EntryNorm, Value: k[:]},
			{Name: EntryWhite, Value: roundTriple(WhitePoint(specN), diagramDecimals)},
			{Name: EntryTgPurple, Value: tg.Chromaticity(1, diagramDecimals)},
		}, nil
	}

	return CurvePair{
		Result: ChromaticityCurve(specN).RoundChannels(diagramDecimals),
		Plot:   plot,
	}.bundle(), nil
}

// equalArea scales each channel of c by the reciprocal of its sum and
// returns the scaled curve with the factors.
func equalArea(c Curve) (Curve, [3]float64) {
	sum := c.Sums()
	var k [3]float64
	for i := range k {
		k[i] = 1 / sum[i]
	}
	out := make(Curve, len(c))
	for i, r := range c {
		out[i] = []float64{r[0], k[0] * r[1], k[1] * r[2], k[2] * r[3]}
	}
	return out, k
}
