// Package colorimetry computes CIE cone-fundamental based colour-matching
// functions and chromaticity diagrams for a given observer, and the legacy
// CIE 1931 and 1964 standard observers.
//
// Every computation is a pure function of a Params value and the immutable
// reference tables. A Session groups the computations of one request so
// that the base fundamentals and the XYZ transformation matrix are derived
// at most once.
package colorimetry

import (
	"fmt"
	"strings"
)

// Quantity identifies one computable colorimetric function.
type Quantity int

const (
	LMS Quantity = iota
	MacLeodBoynton
	Maxwellian
	XYZ
	XY
	XYZPurple
	XYPurple
	XYZStandard
	XYStandard
)

// Quantities lists every Quantity in endpoint order.
var Quantities = []Quantity{LMS, MacLeodBoynton, Maxwellian, XYZ, XY, XYZPurple, XYPurple, XYZStandard, XYStandard}

var quantitySlugs = [...]string{
	LMS:            "lms",
	MacLeodBoynton: "lms-mb",
	Maxwellian:     "lms-mw",
	XYZ:            "xyz",
	XY:             "xy",
	XYZPurple:      "xyz-p",
	XYPurple:       "xy-p",
	XYZStandard:    "xyz-std",
	XYStandard:     "xy-std",
}

var quantityTitles = [...]string{
	LMS:            "CIE LMS cone fundamentals",
	MacLeodBoynton: "MacLeod–Boynton ls chromaticity diagram",
	Maxwellian:     "Maxwellian lm chromaticity diagram",
	XYZ:            "CIE XYZ cone-fundamental-based tristimulus functions",
	XY:             "CIE xy cone-fundamental-based chromaticity diagram",
	XYZPurple:      "XYZ cone-fundamental-based tristimulus functions for purple-line stimuli",
	XYPurple:       "xy cone-fundamental-based chromaticity diagram (purple-line stimuli)",
	XYZStandard:    "CIE XYZ standard colour-matching functions",
	XYStandard:     "CIE xy standard chromaticity diagram",
}

// String returns the URL slug of q, for example "lms-mb".
func (q Quantity) String() string {
	if q < 0 || int(q) >= len(quantitySlugs) {
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
	return quantitySlugs[q]
}

// Title is a human readable name of q.
func (q Quantity) Title() string {
	if q < 0 || int(q) >= len(quantityTitles) {
		return q.String()
	}
	return quantityTitles[q]
}

// Standard reports whether q is one of the legacy CIE standard observers,
// which depend on field size only.
func (q Quantity) Standard() bool {
	return q == XYZStandard || q == XYStandard
}

// Chromaticity reports whether q is a chromaticity diagram rather than a
// set of colour-matching functions.
func (q Quantity) Chromaticity() bool {
	switch q {
	case MacLeodBoynton, Maxwellian, XY, XYPurple, XYStandard:
		return true
	}
	return false
}

// HasInfo reports whether q has an info mode. The LMS functions and the
// standard XYZ functions have none and ignore Params.Info.
func (q Quantity) HasInfo() bool {
	return q != LMS && q != XYZStandard
}

// ParseQuantity maps a URL slug to its Quantity.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for q, slug := range quantitySlugs {
		if slug == s {
			return Quantity(q), nil
		}
	}
	return 0, fmt.Errorf("colorimetry: unknown quantity %q", s)
}
