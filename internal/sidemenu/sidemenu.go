// Package sidemenu renders the HTML description shown next to a computed
// quantity: its parameters, symbols, wavelength domain, normalization and
// precision, plus the derived constants of chromaticity diagrams.
package sidemenu

import (
	"bytes"
	"fmt"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

// DefaultMathJax is the MathJax bundle used to typeset the symbols.
const DefaultMathJax = "https://cdn.jsdelivr.net/npm/mathjax@2/MathJax.js?config=TeX-AMS-MML_HTMLorMML"

// Param is one labelled value.
type Param struct {
	Name  string
	Value string
}

// Matrix is a titled table of preformatted entries.
type Matrix struct {
	Heading string
	Rows    [][]string
}

// Table is a table with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// Menu is the content of one side menu page.
type Menu struct {
	Title          string
	MathJax        string
	Parameters     []Param
	SymbolsHeading string
	Symbols        []string
	Variable       string
	Domain         string
	Normalization  string
	Coefficients   []Param
	Matrix         *Matrix
	Precision      string
	White          []string
	Tangents       *Table
}

// Render builds and renders the side menu of q under p.
func Render(e *colorimetry.Engine, q colorimetry.Quantity, p colorimetry.Params) ([]byte, error) {
	m, err := Build(e, q, p)
	if err != nil {
		return nil, err
	}
	return m.HTML()
}

// HTML renders m.
func (m *Menu) HTML() ([]byte, error) {
	if m.MathJax == "" {
		m.MathJax = DefaultMathJax
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, m); err != nil {
		return nil, fmt.Errorf("render side menu: %w", err)
	}
	return buf.Bytes(), nil
}

// Build computes the values shown in the side menu of q under p.
func Build(e *colorimetry.Engine, q colorimetry.Quantity, p colorimetry.Params) (*Menu, error) {
	p.Info = false
	m := &Menu{Title: q.Title(), Variable: `\(\lambda\) (wavelength)`}
	if q.Standard() {
		buildStandard(m, q, p)
	} else {
		m.Parameters = []Param{
			{"Field size", fmt.Sprintf("%g°", p.FieldSize)},
			{"Age", fmt.Sprintf("%d yr", p.Age)},
		}
		m.Domain = fmt.Sprintf("%.1f nm – %.1f nm, in steps of %.1f nm", p.Min, p.Max, p.Step)
	}

	var info jsonfmt.Bundle
	if q.HasInfo() {
		ip := p
		ip.Info = true
		var err error
		if info, err = e.NewSession(ip).Bundle(q); err != nil {
			return nil, err
		}
	}

	switch q {
	case colorimetry.LMS:
		buildLMS(m, p)
	case colorimetry.MacLeodBoynton:
		m.setCoordinates(p, `l_{\,\mathrm{MB},\,%s,\,%d}`, `m_{\,\mathrm{MB},\,%s,\,%d}`, `s_{\,\mathrm{MB},\,%s,\,%d}`)
		m.Normalization = "The cone signals are divided by the luminance \\(V = \\kappa_L \\bar l + \\kappa_M \\bar m\\); " +
			"the S-cone signal is scaled so that its maximum ratio to luminance is unity."
		m.Precision = "6 decimal places"
		if err := m.setDiagramInfo(info, colorimetry.EntryWhite, colorimetry.EntryTgPurple, []string{"λ (nm)", "l_MB", "s_MB"}); err != nil {
			return nil, err
		}
		if err := m.setCoefficients(info, `\(\kappa_L\)`, `\(\kappa_M\)`, `\(\kappa_S\)`); err != nil {
			return nil, err
		}
	case colorimetry.Maxwellian:
		m.setCoordinates(p, `l_{\,%s,\,%d}`, `m_{\,%s,\,%d}`, `s_{\,%s,\,%d}`)
		m.Normalization = "The cone fundamentals are renormalized to equal area before projection, " +
			"so that illuminant E plots at (1/3, 1/3)."
		m.Precision = "6 decimal places"
		if err := m.setDiagramInfo(info, colorimetry.EntryWhite, colorimetry.EntryTgPurple, []string{"λ (nm)", "l", "m"}); err != nil {
			return nil, err
		}
		if err := m.setCoefficients(info, `\(k_L\)`, `\(k_M\)`, `\(k_S\)`); err != nil {
			return nil, err
		}
	case colorimetry.XYZ, colorimetry.XYZPurple:
		m.SymbolsHeading = "Function symbols"
		m.Symbols = symbols(p, `\bar x_{\,\mathrm{%s},\,%s,\,%d}`, `\bar y_{\,\mathrm{%s},\,%s,\,%d}`, `\bar z_{\,\mathrm{%s},\,%s,\,%d}`, fTag(q))
		m.Normalization = tristimulusNormalization(p)
		m.Precision = "7 significant figures"
		if err := m.setMatrix(info, matrixHeading(q)); err != nil {
			return nil, err
		}
	case colorimetry.XY, colorimetry.XYPurple:
		m.setCoordinates(p, `x_{\,\mathrm{F},\,%s,\,%d}`, `y_{\,\mathrm{F},\,%s,\,%d}`, `z_{\,\mathrm{F},\,%s,\,%d}`)
		m.Normalization = tristimulusNormalization(p)
		m.Precision = "5 decimal places"
		if err := m.setDiagramInfo(info, colorimetry.EntryXYZWhite, colorimetry.EntryXYZTgPurple, []string{"λ (nm)", "x_F", "y_F"}); err != nil {
			return nil, err
		}
	case colorimetry.XYStandard:
		if err := m.setDiagramInfo(info, colorimetry.EntryWhite, colorimetry.EntryTgPurple, []string{"λ (nm)", "x", "y"}); err != nil {
			return nil, err
		}
	}

	if q == colorimetry.XYZPurple || q == colorimetry.XYPurple {
		if err := m.setComplementary(e, p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func fTag(q colorimetry.Quantity) string {
	if q == colorimetry.XYZPurple {
		return "Fp"
	}
	return "F"
}

func matrixHeading(q colorimetry.Quantity) string {
	if q == colorimetry.XYZPurple {
		return "Transformation equation (purple-line stimuli via the spectral LMS to XYZ matrix)"
	}
	return "Transformation equation: XYZ = M · LMS"
}

func tristimulusNormalization(p colorimetry.Params) string {
	s := "The functions are normalized so that the areas under \\(\\bar x\\), \\(\\bar y\\) and \\(\\bar z\\) are equal " +
		"on the full 390–830 nm domain at 1 nm, and \\(\\bar y\\) equals the luminance function."
	if p.Norm {
		s += " Renormalized to equal areas on the selected domain."
	}
	return s
}

func buildLMS(m *Menu, p colorimetry.Params) {
	if p.Base {
		m.Title += " (9 sign. figs.)"
	}
	if p.Log {
		m.Title += " (logarithmic values)"
	}
	m.SymbolsHeading = "Function symbols"
	m.setSymbols(p, `\bar l_{\,%s,\,%d}`, `\bar m_{\,%s,\,%d}`, `\bar s_{\,%s,\,%d}`)
	m.Normalization = "Each function is normalized to a peak value of unity at 0.1 nm resolution."
	switch {
	case p.Base && p.Log:
		m.Precision = "log10 of 9 significant figures, rounded to 8 decimal places"
	case p.Base:
		m.Precision = "9 significant figures"
	case p.Log:
		m.Precision = "log10 of 6 significant figures, rounded to 5 decimal places"
	default:
		m.Precision = "6 significant figures"
	}
}

func buildStandard(m *Menu, q colorimetry.Quantity, p colorimetry.Params) {
	field, year, sub := "2°", "1931", ""
	if p.FieldSize == 10 {
		field, year, sub = "10°", "1964", "_{10}"
	}
	m.Parameters = []Param{{"Field size", field + " (CIE " + year + ")"}}
	m.Domain = "360 nm – 830 nm, in steps of 1 nm"
	if q == colorimetry.XYZStandard {
		m.SymbolsHeading = "Function symbols"
		m.Symbols = []string{
			`\(\bar x` + sub + `\)`, `\(\bar y` + sub + `\)`, `\(\bar z` + sub + `\)`,
		}
		m.Normalization = "As published by the CIE; \\(\\bar y" + sub + "\\) has a peak value of unity."
		m.Precision = "7 significant figures"
		return
	}
	m.SymbolsHeading = "Coordinate symbols"
	m.Symbols = []string{`\(x` + sub + `\)`, `\(y` + sub + `\)`, `\(z` + sub + `\)`}
	m.Variable = ""
	m.Normalization = "Chromaticity coordinates \\(x = X/(X+Y+Z)\\), \\(y = Y/(X+Y+Z)\\), \\(z = Z/(X+Y+Z)\\)."
	m.Precision = "5 decimal places"
}

// fieldLabel formats a field size the way the symbols subscript it.
func fieldLabel(p colorimetry.Params) string {
	return fmt.Sprintf("%g", p.FieldSize)
}

func symbols(p colorimetry.Params, a, b, c, tag string) []string {
	out := make([]string, 3)
	for i, f := range []string{a, b, c} {
		out[i] = fmt.Sprintf(`\(`+f+`\)`, tag, fieldLabel(p), p.Age)
	}
	return out
}

func (m *Menu) setSymbols(p colorimetry.Params, a, b, c string) {
	m.Symbols = make([]string, 3)
	for i, f := range []string{a, b, c} {
		m.Symbols[i] = fmt.Sprintf(`\(`+f+`\)`, fieldLabel(p), p.Age)
	}
}

func (m *Menu) setCoordinates(p colorimetry.Params, a, b, c string) {
	m.SymbolsHeading = "Coordinate symbols"
	m.Variable = ""
	m.setSymbols(p, a, b, c)
}

func bundleRow(b jsonfmt.Bundle, name string) ([]float64, error) {
	v, ok := b.Get(name)
	if !ok {
		return nil, fmt.Errorf("sidemenu: info has no %q entry", name)
	}
	row, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("sidemenu: entry %q is %T", name, v)
	}
	return row, nil
}

func bundleRows(b jsonfmt.Bundle, name string) ([][]float64, error) {
	v, ok := b.Get(name)
	if !ok {
		return nil, fmt.Errorf("sidemenu: info has no %q entry", name)
	}
	rows, ok := v.([][]float64)
	if !ok {
		return nil, fmt.Errorf("sidemenu: entry %q is %T", name, v)
	}
	return rows, nil
}

// format renders v under the column specifier of the info format row.
func format(s jsonfmt.Spec, v float64) string {
	return string(s.Append(nil, v))
}

func (m *Menu) setCoefficients(info jsonfmt.Bundle, names ...string) error {
	norm, err := bundleRow(info, colorimetry.EntryNorm)
	if err != nil {
		return err
	}
	for i, v := range norm {
		if i < len(names) {
			m.Coefficients = append(m.Coefficients, Param{names[i], format(jsonfmt.Fixed(8), v)})
		}
	}
	return nil
}

func (m *Menu) setDiagramInfo(info jsonfmt.Bundle, whiteName, tgName string, header []string) error {
	dp := 6
	if whiteName == colorimetry.EntryXYZWhite || header[1] == "x" {
		dp = 5
	}
	white, err := bundleRow(info, whiteName)
	if err != nil {
		return err
	}
	for _, v := range white {
		m.White = append(m.White, format(jsonfmt.Fixed(dp), v))
	}

	tg, err := bundleRows(info, tgName)
	if err != nil {
		return err
	}
	t := &Table{Header: header}
	for _, r := range tg {
		row := []string{format(jsonfmt.Fixed(1), r[0])}
		for _, v := range r[1:] {
			row = append(row, format(jsonfmt.Fixed(dp), v))
		}
		t.Rows = append(t.Rows, row)
	}
	m.Tangents = t
	return nil
}

func (m *Menu) setMatrix(info jsonfmt.Bundle, heading string) error {
	rows, err := bundleRows(info, colorimetry.EntryTransMat)
	if err != nil {
		return err
	}
	mat := &Matrix{Heading: heading}
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, v := range r {
			cells[i] = format(jsonfmt.Fixed(8), v)
		}
		mat.Rows = append(mat.Rows, cells)
	}
	m.Matrix = mat
	return nil
}

// setComplementary replaces the wavelength domain with the range of
// complementary wavelengths covered by the purple-line stimuli.
func (m *Menu) setComplementary(e *colorimetry.Engine, p colorimetry.Params) error {
	b, err := e.NewSession(p).Bundle(colorimetry.XYZPurple)
	if err != nil {
		return err
	}
	rows, err := bundleRows(b, colorimetry.EntryResult)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		m.Domain = "no complementary wavelengths in the selected domain"
		return nil
	}
	m.Variable = `\(\lambda_{\mathrm{c}}\) (complementary wavelength)`
	m.Domain = fmt.Sprintf("%.1f nm – %.1f nm, in steps of %.1f nm (complementary wavelengths)",
		rows[0][0], rows[len(rows)-1][0], p.Step)
	return nil
}
