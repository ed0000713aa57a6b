package fit

import (
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

// MinimizeSettings controls Minimize1D.
type MinimizeSettings struct {
	// Tolerance is the absolute function-value change below which the
	// search is considered converged.
	Tolerance float64
	// Iterations is the number of consecutive non-improving major
	// iterations that ends the search.
	Iterations int
	// MaxEvaluations bounds the number of objective evaluations. Zero
	// means no bound.
	MaxEvaluations int
	// SimplexSize is the size of the initial Nelder-Mead simplex.
	SimplexSize float64
}

// DefaultMinimizeSettings mirrors the tolerance used when solving for the
// free entry of the XYZ transformation matrix.
func DefaultMinimizeSettings() MinimizeSettings {
	return MinimizeSettings{
		Tolerance:      1e-10,
		Iterations:     50,
		MaxEvaluations: 5000,
		SimplexSize:    0.05,
	}
}

// Minimize1D finds a local minimum of f starting from seed with the
// derivative-free Nelder-Mead method. It returns the minimizer and the
// objective value there.
func Minimize1D(f func(x float64) float64, seed float64, s MinimizeSettings) (float64, float64, error) {
	p := optimize.Problem{
		Func: func(x []float64) float64 { return f(x[0]) },
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   s.Tolerance,
			Iterations: s.Iterations,
		},
		FuncEvaluations: s.MaxEvaluations,
	}
	method := &optimize.NelderMead{SimplexSize: s.SimplexSize}
	res, err := optimize.Minimize(p, []float64{seed}, settings, method)
	if err != nil {
		return 0, 0, fmt.Errorf("fit: minimize: %w", err)
	}
	return res.X[0], res.F, nil
}
