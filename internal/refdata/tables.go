// Package refdata holds the physiological and colorimetric reference tables
// and derives CIE 2006 cone fundamentals from them for a given field size
// and observer age.
package refdata

import (
	"errors"
	"fmt"
	"math"
)

// Grid bounds of the reference tables in nanometres.
const (
	ObserverMin  = 390.0
	ObserverMax  = 830.0
	ObserverStep = 0.1

	StandardMin  = 360.0
	StandardMax  = 830.0
	StandardStep = 1.0
)

// Table identifiers, used as CSV base names and database table names.
const (
	NameAbsorbance = "absorbances"
	NameLens       = "lens"
	NameMacular    = "macular"
	NameCIE1931    = "ciexyz31"
	NameCIE1964    = "ciexyz64"
)

// Names lists every reference table in load order.
var Names = []string{NameAbsorbance, NameLens, NameMacular, NameCIE1931, NameCIE1964}

// columns is the expected row width of each table, wavelength included.
var columns = map[string]int{
	NameAbsorbance: 4,
	NameLens:       3,
	NameMacular:    2,
	NameCIE1931:    4,
	NameCIE1964:    4,
}

// Columns returns the expected row width of the named table.
func Columns(name string) (int, bool) {
	n, ok := columns[name]
	return n, ok
}

var (
	// ErrInvalidTable is wrapped by every table validation failure.
	ErrInvalidTable = errors.New("refdata: invalid reference table")
	// ErrUnknownTable is returned for table names outside Names.
	ErrUnknownTable = errors.New("refdata: unknown reference table")
	// ErrStandardObserver is returned for a standard observer other than
	// the 2 and 10 degree ones.
	ErrStandardObserver = errors.New("refdata: standard observer must be 2 or 10 degrees")
)

// Tables is the complete set of reference data. Rows start with the
// wavelength in nanometres.
//
// Absorbance rows are [λ, log10 A_L, log10 A_M, log10 A_S]; a NaN entry
// means the pigment does not absorb at that wavelength. Lens rows are
// [λ, D_ocul1, D_ocul2], macular rows [λ, relative density]. The CIE rows
// are [λ, x̄, ȳ, z̄] of the 1931 2° and 1964 10° standard observers.
//
// Tables must not be modified once handed to an ObserverCache.
type Tables struct {
	Absorbance [][]float64
	Lens       [][]float64
	Macular    [][]float64
	CIE1931    [][]float64
	CIE1964    [][]float64
}

// Table returns the rows stored under name.
func (t *Tables) Table(name string) ([][]float64, error) {
	switch name {
	case NameAbsorbance:
		return t.Absorbance, nil
	case NameLens:
		return t.Lens, nil
	case NameMacular:
		return t.Macular, nil
	case NameCIE1931:
		return t.CIE1931, nil
	case NameCIE1964:
		return t.CIE1964, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// SetTable replaces the rows stored under name.
func (t *Tables) SetTable(name string, rows [][]float64) error {
	switch name {
	case NameAbsorbance:
		t.Absorbance = rows
	case NameLens:
		t.Lens = rows
	case NameMacular:
		t.Macular = rows
	case NameCIE1931:
		t.CIE1931 = rows
	case NameCIE1964:
		t.CIE1964 = rows
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return nil
}

// Standard returns the CIE 1931 table for field size 2 and the CIE 1964
// table for field size 10.
func (t *Tables) Standard(fieldSize float64) ([][]float64, error) {
	switch fieldSize {
	case 2:
		return t.CIE1931, nil
	case 10:
		return t.CIE1964, nil
	}
	return nil, fmt.Errorf("%w: got %g", ErrStandardObserver, fieldSize)
}

// Validate checks row widths, wavelength ordering, and that the three
// physiological tables share one wavelength grid.
func (t *Tables) Validate() error {
	for _, name := range Names {
		rows, _ := t.Table(name)
		if err := validateRows(name, rows); err != nil {
			return err
		}
	}
	for _, name := range []string{NameLens, NameMacular} {
		rows, _ := t.Table(name)
		if len(rows) != len(t.Absorbance) {
			return fmt.Errorf("%w: %s has %d rows, %s has %d", ErrInvalidTable, name, len(rows), NameAbsorbance, len(t.Absorbance))
		}
		for i := range rows {
			if math.Abs(rows[i][0]-t.Absorbance[i][0]) > 1e-6 {
				return fmt.Errorf("%w: %s row %d at %g nm, %s at %g nm", ErrInvalidTable, name, i, rows[i][0], NameAbsorbance, t.Absorbance[i][0])
			}
		}
	}
	return nil
}

func validateRows(name string, rows [][]float64) error {
	want := columns[name]
	if len(rows) < 3 {
		return fmt.Errorf("%w: %s has %d rows", ErrInvalidTable, name, len(rows))
	}
	for i, r := range rows {
		if len(r) != want {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrInvalidTable, name, i, len(r), want)
		}
		if i > 0 && r[0] <= rows[i-1][0] {
			return fmt.Errorf("%w: %s wavelengths not increasing at row %d", ErrInvalidTable, name, i)
		}
	}
	return nil
}
