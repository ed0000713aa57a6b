package plotpage

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func paramsFor(q colorimetry.Quantity) colorimetry.Params {
	p := colorimetry.DefaultParams()
	if q.Standard() {
		p.FieldSize = 10
	}
	return p
}

func TestRenderEveryQuantity(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	for _, q := range colorimetry.Quantities {
		t.Run(q.String(), func(t *testing.T) {
			html, err := Render(e, q, paramsFor(q), Options{})
			require.NoError(t, err)

			page := string(html)
			assert.Contains(t, page, "<html")
			assert.Contains(t, page, DefaultAssetsHost)
			assert.Contains(t, page, q.Title())
			if q.Chromaticity() {
				assert.Contains(t, page, "spectral locus")
				assert.Contains(t, page, "purple line")
				assert.Contains(t, page, "white (E)")
			} else {
				assert.Contains(t, page, "λ (nm)")
			}
		})
	}
}

func TestRenderLMSHasLogChart(t *testing.T) {
	html, err := Render(testutil.AnalyticEngine(t), colorimetry.LMS, colorimetry.DefaultParams(), Options{AssetsHost: "/assets/"})
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "(log10)")
	assert.Contains(t, page, `src="/assets/echarts.min.js"`)
	assert.NotContains(t, page, "Inf")
	assert.NotContains(t, page, "NaN")
}

func TestRenderXYPurpleShowsBothLoci(t *testing.T) {
	html, err := Render(testutil.AnalyticEngine(t), colorimetry.XYPurple, colorimetry.DefaultParams(), Options{})
	require.NoError(t, err)
	assert.Contains(t, string(html), "purple-line stimuli")
}

func TestRenderIgnoresInfo(t *testing.T) {
	p := colorimetry.DefaultParams()
	p.Info = true
	_, err := Render(testutil.AnalyticEngine(t), colorimetry.XYZ, p, Options{})
	require.NoError(t, err)
}

func TestSubtitle(t *testing.T) {
	p := colorimetry.DefaultParams()
	assert.Equal(t, "CIE 1931 2° standard observer", subtitle(colorimetry.XYStandard, p))
	p.FieldSize = 10
	assert.Equal(t, "CIE 1964 10° standard observer", subtitle(colorimetry.XYZStandard, p))
	assert.Equal(t, "field size 10°, age 32, 390–830 nm", subtitle(colorimetry.XY, p))
}

func TestDiagramFor(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	p := colorimetry.DefaultParams()
	b, err := e.NewSession(p).Bundle(colorimetry.MacLeodBoynton)
	require.NoError(t, err)
	plot, err := Rows(b, colorimetry.EntryPlot)
	require.NoError(t, err)

	d, err := diagramFor(e, colorimetry.MacLeodBoynton, p, plot)
	require.NoError(t, err)
	assert.Equal(t, colorimetry.PlaneLS, d.Plane)
	assert.Len(t, d.Tangent, 2)
	assert.Less(t, d.Tangent[0][0], d.Tangent[1][0])

	wx, wy := d.whiteXY()
	assert.Equal(t, d.White[0], wx)
	assert.Equal(t, d.White[2], wy)
}

func TestRowsErrors(t *testing.T) {
	b := jsonfmt.Bundle{
		{Name: "row", Value: []float64{1, 2, 3}},
		{Name: "rows", Value: [][]float64{{1}}},
	}
	_, err := Rows(b, "missing")
	assert.ErrorContains(t, err, "no \"missing\" entry")
	_, err = Rows(b, "row")
	assert.ErrorContains(t, err, "want [][]float64")
	_, err = Row(b, "rows")
	assert.ErrorContains(t, err, "want []float64")

	row, err := Row(b, "row")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, row)
}

func TestSeriesDropsNonFinite(t *testing.T) {
	xs := []float64{1, 2, 3}
	ys := []float64{0.5, math.Inf(-1), 0.25}
	data := series(3, func(i int) (float64, float64) { return xs[i], ys[i] })
	require.Len(t, data, 2)
	assert.Equal(t, []interface{}{3.0, 0.25}, data[1].Value)
}
