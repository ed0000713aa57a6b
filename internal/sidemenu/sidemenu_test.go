package sidemenu

import (
	"os"
	"strings"
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

func TestRenderEveryQuantity(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	for _, q := range colorimetry.Quantities {
		t.Run(q.String(), func(t *testing.T) {
			p := colorimetry.DefaultParams()
			if q.Standard() {
				p.FieldSize = 10
			}
			html, err := Render(e, q, p)
			require.NoError(t, err)

			page := string(html)
			assert.Contains(t, page, "<h2>"+q.Title())
			assert.Contains(t, page, DefaultMathJax)
			assert.Contains(t, page, "Precision of tabulated values")
			assert.Equal(t, q.Chromaticity(), strings.Contains(page, "Tangent points of the purple line"))
		})
	}
}

func TestBuildLMS(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	p := colorimetry.DefaultParams()
	p.Base = true

	m, err := Build(e, colorimetry.LMS, p)
	require.NoError(t, err)
	assert.Equal(t, "CIE LMS cone fundamentals (9 sign. figs.)", m.Title)
	assert.Equal(t, []Param{{"Field size", "2°"}, {"Age", "32 yr"}}, m.Parameters)
	assert.Equal(t, `\(\bar l_{\,2,\,32}\)`, m.Symbols[0])
	assert.Equal(t, "9 significant figures", m.Precision)
	assert.Equal(t, "390.0 nm – 830.0 nm, in steps of 1.0 nm", m.Domain)
	assert.Nil(t, m.Tangents)
	assert.Nil(t, m.Matrix)

	p.Log = true
	m, err = Build(e, colorimetry.LMS, p)
	require.NoError(t, err)
	assert.Contains(t, m.Precision, "8 decimal places")
}

func TestBuildMacLeodBoynton(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	m, err := Build(e, colorimetry.MacLeodBoynton, colorimetry.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, "Coordinate symbols", m.SymbolsHeading)
	assert.Equal(t, `\(l_{\,\mathrm{MB},\,2,\,32}\)`, m.Symbols[0])
	require.Len(t, m.Coefficients, 3)
	require.Len(t, m.White, 3)
	require.NotNil(t, m.Tangents)
	assert.Len(t, m.Tangents.Rows, 2)
	for _, row := range m.Tangents.Rows {
		require.Len(t, row, 3)
		assert.Regexp(t, `^\d{3}\.\d$`, row[0])
	}
	for _, c := range m.Coefficients {
		assert.Regexp(t, `^-?\d+\.\d{8}$`, c.Value)
	}
}

func TestBuildXYZMatrix(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	m, err := Build(e, colorimetry.XYZ, colorimetry.DefaultParams())
	require.NoError(t, err)

	require.NotNil(t, m.Matrix)
	require.Len(t, m.Matrix.Rows, 3)
	for _, row := range m.Matrix.Rows {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, `\(\bar x_{\,\mathrm{F},\,2,\,32}\)`, m.Symbols[0])
	assert.Nil(t, m.Tangents)
}

func TestBuildPurpleDomain(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	p := colorimetry.DefaultParams()

	b, err := e.NewSession(p).Bundle(colorimetry.XYZPurple)
	require.NoError(t, err)
	v, ok := b.Get(colorimetry.EntryResult)
	require.True(t, ok)
	rows := v.([][]float64)
	require.NotEmpty(t, rows)

	for _, q := range []colorimetry.Quantity{colorimetry.XYZPurple, colorimetry.XYPurple} {
		m, err := Build(e, q, p)
		require.NoError(t, err)
		assert.Contains(t, m.Domain, string(jsonfmt.Fixed(1).Append(nil, rows[0][0]))+" nm")
		assert.Contains(t, m.Domain, "complementary")
		assert.Contains(t, m.Variable, `\lambda_{\mathrm{c}}`)
	}
}

func TestBuildStandard(t *testing.T) {
	e := testutil.AnalyticEngine(t)
	tests := []struct {
		field  float64
		label  string
		symbol string
	}{
		{2, "2° (CIE 1931)", `\(\bar x\)`},
		{10, "10° (CIE 1964)", `\(\bar x_{10}\)`},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p := colorimetry.DefaultParams()
			p.FieldSize = tt.field
			m, err := Build(e, colorimetry.XYZStandard, p)
			require.NoError(t, err)
			assert.Equal(t, []Param{{"Field size", tt.label}}, m.Parameters)
			assert.Equal(t, tt.symbol, m.Symbols[0])
			assert.Equal(t, "360 nm – 830 nm, in steps of 1 nm", m.Domain)

			m, err = Build(e, colorimetry.XYStandard, p)
			require.NoError(t, err)
			require.Len(t, m.White, 3)
			assert.Regexp(t, `^0\.\d{5}$`, m.White[0])
		})
	}
}

func TestHTMLKeepsMathDelimiters(t *testing.T) {
	m := &Menu{
		Title:   "t",
		MathJax: "/mathjax.js",
		Symbols: []string{`\(\bar l_{\,2,\,32}\)`},
	}
	html, err := m.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), `\(\bar l_{\,2,\,32}\)`)
	assert.Contains(t, string(html), `src="/mathjax.js"`)
}
