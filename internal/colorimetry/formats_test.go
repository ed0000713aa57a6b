package colorimetry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

func TestFormatFor(t *testing.T) {
	testCases := []struct {
		name string
		q    Quantity
		mod  func(*Params)
		want FormatKey
	}{
		{"lms", LMS, nil, FormatLMS},
		{"lms_log", LMS, func(p *Params) { p.Log = true }, FormatLMSLog},
		{"lms_base", LMS, func(p *Params) { p.Base = true }, FormatLMSBase},
		{"lms_base_log", LMS, func(p *Params) { p.Base, p.Log = true, true }, FormatLMSBaseLog},
		{"macleod_boynton", MacLeodBoynton, nil, FormatDiagram},
		{"maxwellian", Maxwellian, nil, FormatDiagram},
		{"xyz", XYZ, nil, FormatTristim},
		{"xyz_purple", XYZPurple, nil, FormatTristim},
		{"xyz_std", XYZStandard, nil, FormatTristim},
		{"xy", XY, nil, FormatChromatic},
		{"xy_purple", XYPurple, nil, FormatChromatic},
		{"xy_std", XYStandard, nil, FormatChromatic},
		{"xyz_info", XYZ, func(p *Params) { p.Info = true }, FormatInfo},
		{"xy_info_wins", XY, func(p *Params) { p.Info, p.Norm = true, true }, FormatInfo},
		{"lms_ignores_info", LMS, func(p *Params) { p.Info, p.Log = true, true }, FormatLMSLog},
		{"xyz_std_ignores_info", XYZStandard, func(p *Params) { p.Info = true }, FormatTristim},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatFor(tc.q, paramsWith(tc.mod)))
		})
	}
}

func TestFormatsTable(t *testing.T) {
	testCases := []struct {
		key     FormatKey
		entry   string
		columns string
	}{
		{FormatLMSBaseLog, EntryResult, "[.1f .8f .8f .8f]"},
		{FormatLMSBase, EntryPlot, "[.1f .8e .8e .8e]"},
		{FormatLMSLog, EntryResult, "[.1f .5f .5f .5f]"},
		{FormatLMS, EntryResult, "[.1f .5e .5e .5e]"},
		{FormatDiagram, EntryResult, "[.1f .6f .6f .6f]"},
		{FormatTristim, EntryPlot, "[.1f .6e .6e .6e]"},
		{FormatChromatic, EntryResult, "[.1f .5f .5f .5f]"},
		{FormatInfo, EntryNorm, "[.8f .8f .8f]"},
		{FormatInfo, EntryWhite, "[.6f .6f .6f]"},
		{FormatInfo, EntryTgPurple, "[.6f .6f .6f]"},
		{FormatInfo, EntryXYZWhite, "[.5f .5f .5f]"},
		{FormatInfo, EntryXYZTgPurple, "[.5f .5f .5f]"},
		{FormatInfo, EntryXYZTgPurpleT, "[.5f .5f .5f .5f]"},
		{FormatInfo, EntryTransMat, "[.8f .8f .8f]"},
	}
	require.Len(t, FormatKeys, 8)

	for _, tc := range testCases {
		t.Run(string(tc.key)+"/"+tc.entry, func(t *testing.T) {
			f, err := Formats(tc.key)
			require.NoError(t, err)
			specs, ok := f[tc.entry]
			require.True(t, ok)
			assert.Equal(t, tc.columns, fmtSpecs(specs))
		})
	}
}

func fmtSpecs(specs jsonfmt.Specs) string {
	out := "["
	for i, s := range specs {
		if i > 0 {
			out += " "
		}
		out += s.String()
	}
	return out + "]"
}

func TestFormatsReturnsCopy(t *testing.T) {
	f, err := Formats(FormatLMS)
	require.NoError(t, err)
	f[EntryResult][1] = jsonfmt.Fixed(1)
	delete(f, EntryPlot)

	again, err := Formats(FormatLMS)
	require.NoError(t, err)
	assert.Equal(t, jsonfmt.Sci(5), again[EntryResult][1])
	assert.Contains(t, again, EntryPlot)

	_, err = Formats("LMS-nope")
	assert.Error(t, err)
	_, err = Encode(nil, "LMS-nope")
	assert.Error(t, err)
}

func TestEncodeInfoBundle(t *testing.T) {
	b := jsonfmt.Bundle{
		{Name: EntryNorm, Value: []float64{0.6993641, 0.34253216, 0.03040997}},
		{Name: EntryWhite, Value: []float64{0.71312, 0.28688, 0.016007}},
		{Name: EntryTgPurple, Value: [][]float64{{409.5, 0.663468, 0.951054}, {699.9, 0.969648, 0}}},
	}
	got, err := Encode(b, FormatInfo)
	require.NoError(t, err)

	want := `{"norm":[0.69936410,0.34253216,0.03040997],` +
		`"white":[0.713120,0.286880,0.016007],` +
		`"tg_purple":[[409.500000,0.663468,0.951054],[699.900000,0.969648,0.000000]]}`
	assert.Equal(t, want, string(got))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, []any{0.6993641, 0.34253216, 0.03040997}, decoded[EntryNorm])
}

func TestEncodeRejectsWrongRowWidth(t *testing.T) {
	b := jsonfmt.Bundle{{Name: EntryResult, Value: [][]float64{{390, 1, 2, 3}, {391, 1, 2}}}, {Name: EntryPlot, Value: [][]float64{}}}
	_, err := Encode(b, FormatLMS)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonfmt.ErrShapeMismatch))

	var shape *jsonfmt.ShapeError
	require.True(t, errors.As(err, &shape))
	if diff := cmp.Diff([]int{1}, shape.Path); diff != "" {
		t.Errorf("shape error path mismatch (-want +got):\n%s", diff)
	}
}
