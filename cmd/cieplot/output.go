package main

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/refdata"
	"github.com/banshee-data/ciefunctions/internal/security"
)

var channelColors = []color.Color{
	color.RGBA{R: 200, G: 30, B: 30, A: 255},
	color.RGBA{R: 30, G: 150, B: 30, A: 255},
	color.RGBA{R: 30, G: 60, B: 200, A: 255},
}

// baseName is the output file stem of q: the slug followed by the
// parameters that select it.
func baseName(q colorimetry.Quantity, o *options) string {
	name := fmt.Sprintf("%s_fs%g", q, o.fieldSize)
	if !q.Standard() {
		name += fmt.Sprintf("_age%g_%g-%g_step%g", o.age, o.min, o.max, o.step)
	}
	return security.SanitizeFilename(name)
}

// writeOutputs writes the requested formats of out under dir and returns
// the file paths. CSV and PNG are skipped for the info variants.
func writeOutputs(dir, base string, q colorimetry.Quantity, out *output, formats map[string]bool) ([]string, error) {
	var files []string
	write := func(ext string, data []byte) error {
		path := filepath.Join(dir, base+ext)
		if err := security.ValidateOutputPath(path, dir); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
		return nil
	}

	if formats["json"] {
		if err := write(".json", out.JSON); err != nil {
			return nil, err
		}
	}
	if out.Result == nil {
		return files, nil
	}
	if formats["csv"] {
		var buf bytes.Buffer
		if err := refdata.WriteCSV(&buf, out.Result); err != nil {
			return nil, err
		}
		if err := write(".csv", buf.Bytes()); err != nil {
			return nil, err
		}
	}
	if formats["png"] {
		rows := out.Plot
		if rows == nil {
			rows = out.Result
		}
		p, err := newPlot(q, rows)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, base+".png")
		if err := security.ValidateOutputPath(path, dir); err != nil {
			return nil, err
		}
		if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("save plot: %w", err)
		}
		files = append(files, path)
	}
	return files, nil
}

// channels names the value columns of q.
func channels(q colorimetry.Quantity) []string {
	switch q {
	case colorimetry.LMS:
		return []string{"L", "M", "S"}
	case colorimetry.MacLeodBoynton, colorimetry.Maxwellian:
		return []string{"l", "m", "s"}
	case colorimetry.XY, colorimetry.XYPurple, colorimetry.XYStandard:
		return []string{"x", "y", "z"}
	}
	return []string{"X", "Y", "Z"}
}

// chromaticityAxes returns the columns plotted against each other in the
// diagram of q.
func chromaticityAxes(q colorimetry.Quantity) (int, int) {
	if q == colorimetry.MacLeodBoynton {
		return 1, 3
	}
	return 1, 2
}

// newPlot draws the spectral curves of q against wavelength, or its
// spectral locus for the chromaticity quantities. Non-finite points are
// left out.
func newPlot(q colorimetry.Quantity, rows [][]float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = q.Title()
	names := channels(q)

	if q.Chromaticity() {
		xi, yi := chromaticityAxes(q)
		p.X.Label.Text = names[xi-1]
		p.Y.Label.Text = names[yi-1]
		pts := make(plotter.XYs, 0, len(rows))
		for _, r := range rows {
			if len(r) > yi && finite(r[xi]) && finite(r[yi]) {
				pts = append(pts, plotter.XY{X: r[xi], Y: r[yi]})
			}
		}
		if len(pts) == 0 {
			return p, nil
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = channelColors[2]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("spectral locus", line)
		p.Legend.Top = true
		p.Legend.Left = false
		return p, nil
	}

	p.X.Label.Text = "Wavelength (nm)"
	p.Y.Label.Text = "Value"
	for j, name := range names {
		col := j + 1
		pts := make(plotter.XYs, 0, len(rows))
		for _, r := range rows {
			if len(r) > col && finite(r[0]) && finite(r[col]) {
				pts = append(pts, plotter.XY{X: r[0], Y: r[col]})
			}
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = channelColors[j%len(channelColors)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
