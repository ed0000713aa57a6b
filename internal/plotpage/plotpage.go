// Package plotpage renders the interactive plot of a computed quantity as
// a self-contained go-echarts HTML page.
package plotpage

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

// DefaultAssetsHost serves the echarts JavaScript bundle.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var channelColors = [3]string{"#d62728", "#2ca02c", "#1f77b4"}

// Options configures the rendered page.
type Options struct {
	// AssetsHost overrides DefaultAssetsHost, for example to serve the
	// assets from the same origin.
	AssetsHost string
	Width      string
	Height     string
}

func (o Options) withDefaults() Options {
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}
	if o.Width == "" {
		o.Width = "900px"
	}
	if o.Height == "" {
		o.Height = "600px"
	}
	return o
}

// Render computes q under p and returns the HTML plot page.
func Render(e *colorimetry.Engine, q colorimetry.Quantity, p colorimetry.Params, o Options) ([]byte, error) {
	o = o.withDefaults()
	p.Info = false

	b, err := e.NewSession(p).Bundle(q)
	if err != nil {
		return nil, err
	}
	plot, err := Rows(b, colorimetry.EntryPlot)
	if err != nil {
		return nil, err
	}

	page := components.NewPage()
	page.SetAssetsHost(o.AssetsHost)
	page.SetPageTitle(q.Title())

	if !q.Chromaticity() {
		page.AddCharts(curveChart(q.Title(), subtitle(q, p), axisNames(q), plot, o))
		if q == colorimetry.LMS {
			lp := p
			lp.Log = true
			lb, err := e.NewSession(lp).Bundle(q)
			if err != nil {
				return nil, err
			}
			logPlot, err := Rows(lb, colorimetry.EntryPlot)
			if err != nil {
				return nil, err
			}
			page.AddCharts(curveChart(q.Title()+" (log10)", subtitle(q, p), axisNames(q), logPlot, o))
		}
	} else {
		d, err := diagramFor(e, q, p, plot)
		if err != nil {
			return nil, err
		}
		page.AddCharts(diagramChart(q.Title(), subtitle(q, p), d, o))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s plot: %w", q, err)
	}
	return buf.Bytes(), nil
}

func subtitle(q colorimetry.Quantity, p colorimetry.Params) string {
	if q.Standard() {
		if p.FieldSize == 2 {
			return "CIE 1931 2° standard observer"
		}
		return "CIE 1964 10° standard observer"
	}
	return fmt.Sprintf("field size %g°, age %d, %g–%g nm", p.FieldSize, p.Age, p.Min, p.Max)
}

// axisNames returns the legend labels of the three channels.
func axisNames(q colorimetry.Quantity) [3]string {
	switch q {
	case colorimetry.LMS:
		return [3]string{"l̄", "m̄", "s̄"}
	case colorimetry.MacLeodBoynton:
		return [3]string{"l_MB", "m_MB", "s_MB"}
	case colorimetry.Maxwellian:
		return [3]string{"l", "m", "s"}
	case colorimetry.XYZ, colorimetry.XYZPurple, colorimetry.XYZStandard:
		return [3]string{"x̄", "ȳ", "z̄"}
	}
	return [3]string{"x", "y", "z"}
}

// Rows extracts a two-dimensional entry from a bundle.
func Rows(b jsonfmt.Bundle, name string) ([][]float64, error) {
	v, ok := b.Get(name)
	if !ok {
		return nil, fmt.Errorf("plotpage: bundle has no %q entry", name)
	}
	rows, ok := v.([][]float64)
	if !ok {
		return nil, fmt.Errorf("plotpage: entry %q is %T, want [][]float64", name, v)
	}
	return rows, nil
}

// Row extracts a one-dimensional entry from a bundle.
func Row(b jsonfmt.Bundle, name string) ([]float64, error) {
	v, ok := b.Get(name)
	if !ok {
		return nil, fmt.Errorf("plotpage: bundle has no %q entry", name)
	}
	row, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("plotpage: entry %q is %T, want []float64", name, v)
	}
	return row, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// series converts (x, y) pairs to echarts data, dropping non-finite
// points such as log10(0).
func series(n int, xy func(i int) (float64, float64)) []opts.LineData {
	data := make([]opts.LineData, 0, n)
	for i := 0; i < n; i++ {
		x, y := xy(i)
		if finite(x) && finite(y) {
			data = append(data, opts.LineData{Value: []interface{}{x, y}})
		}
	}
	return data
}

func newLine(title, sub, xName, yName string, o Options) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: o.Width, Height: o.Height, AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: sub}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xName, NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName, NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	return line
}

func lineStyle(color string, width float32) charts.SeriesOpts {
	return charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: width})
}

func noSymbols() charts.SeriesOpts {
	return charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
}

// curveChart plots three channels against wavelength.
func curveChart(title, sub string, names [3]string, rows [][]float64, o Options) *charts.Line {
	line := newLine(title, sub, "λ (nm)", "", o)
	for c := 0; c < 3; c++ {
		data := series(len(rows), func(i int) (float64, float64) { return rows[i][0], rows[i][c+1] })
		line.AddSeries(names[c], data, noSymbols(), lineStyle(channelColors[c], 1.5))
	}
	return line
}
