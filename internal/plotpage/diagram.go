package plotpage

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
)

// Diagram is the content of a chromaticity diagram.
type Diagram struct {
	Plane  colorimetry.Plane
	XName  string
	YName  string
	Locus  [][]float64
	Purple [][]float64 // purple-line stimuli, purple quantities only
	White  []float64
	// Tangent holds the two purple line endpoints as [λ, a, b].
	Tangent [][]float64
}

// info entry names of the white point and tangent points per quantity.
func infoNames(q colorimetry.Quantity) (white, tangent string) {
	switch q {
	case colorimetry.XY, colorimetry.XYPurple:
		return colorimetry.EntryXYZWhite, colorimetry.EntryXYZTgPurple
	}
	return colorimetry.EntryWhite, colorimetry.EntryTgPurple
}

func planeFor(q colorimetry.Quantity) (colorimetry.Plane, string, string) {
	switch q {
	case colorimetry.MacLeodBoynton:
		return colorimetry.PlaneLS, "l_MB", "s_MB"
	case colorimetry.Maxwellian:
		return colorimetry.PlaneXY, "l", "m"
	}
	return colorimetry.PlaneXY, "x", "y"
}

// diagramFor gathers the spectral locus, purple line and white point of a
// chromaticity quantity. plot is the plot curve of q itself.
func diagramFor(e *colorimetry.Engine, q colorimetry.Quantity, p colorimetry.Params, plot [][]float64) (*Diagram, error) {
	d := &Diagram{Locus: plot}
	d.Plane, d.XName, d.YName = planeFor(q)

	if q == colorimetry.XYPurple {
		b, err := e.NewSession(p).Bundle(colorimetry.XY)
		if err != nil {
			return nil, err
		}
		if d.Locus, err = Rows(b, colorimetry.EntryPlot); err != nil {
			return nil, err
		}
		d.Purple = plot
	}

	ip := p
	ip.Info = true
	info, err := e.NewSession(ip).Bundle(q)
	if err != nil {
		return nil, err
	}
	whiteName, tgName := infoNames(q)
	if d.White, err = Row(info, whiteName); err != nil {
		return nil, err
	}
	if d.Tangent, err = Rows(info, tgName); err != nil {
		return nil, err
	}
	if len(d.Tangent) != 2 || len(d.White) != 3 {
		return nil, fmt.Errorf("plotpage: %s info has %d tangent points and %d white coordinates", q, len(d.Tangent), len(d.White))
	}
	return d, nil
}

// whiteXY returns the white point in the diagram plane.
func (d *Diagram) whiteXY() (float64, float64) {
	return d.White[d.Plane[0]-1], d.White[d.Plane[1]-1]
}

func diagramChart(title, sub string, d *Diagram, o Options) *charts.Line {
	line := newLine(title, sub, d.XName, d.YName, o)
	line.SetGlobalOptions(charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}))

	a, b := d.Plane[0], d.Plane[1]
	locus := series(len(d.Locus), func(i int) (float64, float64) { return d.Locus[i][a], d.Locus[i][b] })
	line.AddSeries("spectral locus", locus, noSymbols(), lineStyle("#333333", 1.5))

	if d.Purple != nil {
		purple := series(len(d.Purple), func(i int) (float64, float64) { return d.Purple[i][a], d.Purple[i][b] })
		line.AddSeries("purple-line stimuli", purple, noSymbols(), lineStyle("#9467bd", 2))
	}

	tg := series(2, func(i int) (float64, float64) { return d.Tangent[i][1], d.Tangent[i][2] })
	line.AddSeries("purple line", tg,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true), SymbolSize: 6}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "#9467bd", Width: 1, Type: "dashed"}))

	wx, wy := d.whiteXY()
	white := series(1, func(int) (float64, float64) { return wx, wy })
	line.AddSeries("white (E)", white,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true), Symbol: "diamond", SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff7f0e"}))
	return line
}
