package colorimetry

import (
	"fmt"

	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
)

// FormatKey names one row of the format table.
type FormatKey string

const (
	FormatLMSBaseLog FormatKey = "LMS-base-log"
	FormatLMSBase    FormatKey = "LMS-base"
	FormatLMSLog     FormatKey = "LMS-log"
	FormatLMS        FormatKey = "LMS"
	FormatDiagram    FormatKey = "Maxwell-Macleod-resplot"
	FormatTristim    FormatKey = "XYZ-XYZP-XYZ-STD"
	FormatChromatic  FormatKey = "XY-XYP-XY-STD"
	FormatInfo       FormatKey = "info-1"
)

// Bundle entry names.
const (
	EntryResult       = "result"
	EntryPlot         = "plot"
	EntryNorm         = "norm"
	EntryWhite        = "white"
	EntryTgPurple     = "tg_purple"
	EntryXYZWhite     = "xyz_white"
	EntryXYZTgPurple  = "xyz_tg_purple"
	EntryXYZTgPurpleT = "XYZ_tg_purple"
	EntryTransMat     = "trans_mat"
)

var (
	f1 = jsonfmt.Specs{jsonfmt.Fixed(1)}
	f5 = jsonfmt.Fixed(5)
	f6 = jsonfmt.Fixed(6)
	f8 = jsonfmt.Fixed(8)
)

func curveFormats(channel jsonfmt.Spec) jsonfmt.Formats {
	row := jsonfmt.Row(f1, jsonfmt.Repeat(channel, 3))
	return jsonfmt.Formats{EntryResult: row, EntryPlot: row}
}

var formatTable = map[FormatKey]jsonfmt.Formats{
	FormatLMSBaseLog: curveFormats(f8),
	FormatLMSBase:    curveFormats(jsonfmt.Sci(8)),
	FormatLMSLog:     curveFormats(f5),
	FormatLMS:        curveFormats(jsonfmt.Sci(5)),
	FormatDiagram:    curveFormats(f6),
	FormatTristim:    curveFormats(jsonfmt.Sci(6)),
	FormatChromatic:  curveFormats(f5),
	FormatInfo: {
		EntryNorm:         jsonfmt.Repeat(f8, 3),
		EntryWhite:        jsonfmt.Repeat(f6, 3),
		EntryTgPurple:     jsonfmt.Repeat(f6, 3),
		EntryXYZWhite:     jsonfmt.Repeat(f5, 3),
		EntryXYZTgPurple:  jsonfmt.Repeat(f5, 3),
		EntryXYZTgPurpleT: jsonfmt.Repeat(f5, 4),
		EntryTransMat:     jsonfmt.Repeat(f8, 3),
	},
}

// FormatKeys lists the rows of the format table.
var FormatKeys = []FormatKey{
	FormatLMSBaseLog, FormatLMSBase, FormatLMSLog, FormatLMS,
	FormatDiagram, FormatTristim, FormatChromatic, FormatInfo,
}

// Formats returns a copy of the column specifiers registered under key.
func Formats(key FormatKey) (jsonfmt.Formats, error) {
	src, ok := formatTable[key]
	if !ok {
		return nil, fmt.Errorf("colorimetry: unknown format %q", key)
	}
	out := make(jsonfmt.Formats, len(src))
	for name, specs := range src {
		out[name] = append(jsonfmt.Specs(nil), specs...)
	}
	return out, nil
}

// FormatFor selects the format table row for a computation of q under p.
// Info selects the info row only for quantities that have an info mode.
func FormatFor(q Quantity, p Params) FormatKey {
	if p.Info && q.HasInfo() {
		return FormatInfo
	}
	switch q {
	case LMS:
		switch {
		case p.Base && p.Log:
			return FormatLMSBaseLog
		case p.Base:
			return FormatLMSBase
		case p.Log:
			return FormatLMSLog
		}
		return FormatLMS
	case MacLeodBoynton, Maxwellian:
		return FormatDiagram
	case XYZ, XYZPurple, XYZStandard:
		return FormatTristim
	}
	return FormatChromatic
}

// Encode serializes b under the format table row key.
func Encode(b jsonfmt.Bundle, key FormatKey) ([]byte, error) {
	formats, ok := formatTable[key]
	if !ok {
		return nil, fmt.Errorf("colorimetry: unknown format %q", key)
	}
	return jsonfmt.Encode(b, formats)
}
