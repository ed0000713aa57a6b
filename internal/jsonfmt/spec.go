// Package jsonfmt renders named numeric arrays as JSON text with a fixed
// per-column textual precision. It never rounds values itself: every
// number is printed with the precision of its column specifier, and
// non-finite values are printed as null. Magnitudes below 1e-14 print as
// an unsigned zero.
package jsonfmt

import (
	"fmt"
	"math"
	"strconv"
)

// Notation selects between fixed-point and scientific rendering.
type Notation byte

const (
	FixedNotation      Notation = 'f'
	ScientificNotation Notation = 'e'
)

// Spec is a single column format specifier.
type Spec struct {
	Notation Notation
	Digits   int
}

// Fixed returns a specifier printing n digits after the decimal point.
func Fixed(n int) Spec { return Spec{Notation: FixedNotation, Digits: n} }

// Sci returns a specifier printing n digits after the decimal point in
// scientific notation with an exponent of at least two digits.
func Sci(n int) Spec { return Spec{Notation: ScientificNotation, Digits: n} }

// String returns the specifier in the ".nf" / ".ne" form.
func (s Spec) String() string {
	return fmt.Sprintf(".%d%c", s.Digits, s.Notation)
}

// chopEpsilon is the magnitude below which values print as zero.
const chopEpsilon = 1e-14

// Append appends the text of v under s to dst.
func (s Spec) Append(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(dst, "null"...)
	}
	if math.Abs(v) < chopEpsilon {
		v = 0
	}
	return strconv.AppendFloat(dst, v, byte(s.Notation), s.Digits, 64)
}

// Specs is an ordered list of column specifiers, one per element of a row.
type Specs []Spec

// Repeat returns n copies of s.
func Repeat(s Spec, n int) Specs {
	out := make(Specs, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// Row builds a specifier list from parts.
func Row(parts ...Specs) Specs {
	var out Specs
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
