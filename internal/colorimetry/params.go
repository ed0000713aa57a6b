package colorimetry

import (
	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// gridGuard extends the upper domain bound so that max itself is sampled
// despite floating point accumulation.
const gridGuard = 0.01

// PlotStep is the fixed sampling step of every plot curve in nanometres.
const PlotStep = 0.1

// Params is the validated input of every computation. It is passed by
// value and never modified by the stages.
type Params struct {
	FieldSize float64
	Age       int

	// Min, Max and Step define the user-facing wavelength grid in nm.
	Min, Max, Step float64

	// Log requests log10 LMS values.
	Log bool
	// Base requests the nine significant figure LMS variant.
	Base bool
	// Info requests normalization coefficients, white point, tangent
	// points or the transformation matrix instead of curves.
	Info bool
	// Norm requests the renormalized XYZ transformation matrix.
	Norm bool
}

// DefaultParams returns the parameters of the 2° observer of age 32 on
// the full 390–830 nm domain at 1 nm.
func DefaultParams() Params {
	return Params{
		FieldSize: 2,
		Age:       32,
		Min:       refdata.ObserverMin,
		Max:       refdata.ObserverMax,
		Step:      1,
	}
}

// SpecGrid returns the wavelengths of the result curves.
func (p Params) SpecGrid() []float64 {
	return fit.Arange(p.Min, p.Max, p.Step, gridGuard, -1)
}

// PlotGrid returns the 0.1 nm wavelengths of the plot curves.
func (p Params) PlotGrid() []float64 {
	return fit.Arange(p.Min, p.Max, PlotStep, gridGuard, 1)
}

// fullDomain reports whether the result grid is exactly 390–830 nm at 1 nm.
func fullDomain(grid []float64) bool {
	if len(grid) < 2 {
		return false
	}
	return grid[0] == refdata.ObserverMin &&
		fit.Round(grid[len(grid)-1], 1) == refdata.ObserverMax &&
		fit.Round(grid[1]-grid[0], 1) == 1
}
