package colorimetry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// matDecimals is the precision of transformation matrix entries.
const matDecimals = 8

// ErrNotConverged is wrapped by NotConvergedError.
var ErrNotConverged = errors.New("colorimetry: transformation solver did not converge")

// NotConvergedError reports that the x-minimum of the computed locus kept
// moving away from the reference wavelength.
type NotConvergedError struct {
	Retries   int
	LambdaRef float64
	LambdaMin float64
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("colorimetry: transformation solver did not converge after %d retries (reference %g nm, locus minimum %g nm)",
		e.Retries, e.LambdaRef, e.LambdaMin)
}

func (e *NotConvergedError) Unwrap() error { return ErrNotConverged }

// SolverConfig tunes the search for the free matrix entry a13.
type SolverConfig struct {
	// Seed is the starting value of a13.
	Seed float64
	// Tolerance is the absolute objective tolerance of the minimizer.
	Tolerance float64
	// InitialLambda is the first reference wavelength of the x-minimum.
	// Values off the 1 nm grid or outside the search region fall back to
	// the reference vertex.
	InitialLambda float64
	// Window is the half width in nm of the fixed region, centred on the
	// reference vertex, searched for the locus x-minimum.
	Window float64
	// MaxRetries bounds the number of re-minimizations after the first.
	MaxRetries int
}

// DefaultSolverConfig returns the standard solver settings.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Seed:          0.39,
		Tolerance:     1e-10,
		InitialLambda: 502,
		Window:        20,
		MaxRetries:    25,
	}
}

func (c SolverConfig) withDefaults() SolverConfig {
	d := DefaultSolverConfig()
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.InitialLambda == 0 {
		c.InitialLambda = d.InitialLambda
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	return c
}

// Transform is the solved LMS to XYZ matrix of one observer.
type Transform struct {
	// Mat is the solved matrix.
	Mat Matrix
	// MatN is Mat with the X and Z rows rescaled so that the X, Y and Z
	// sums over the result grid agree. It equals Mat on the full
	// 390–830 nm, 1 nm grid.
	MatN Matrix
	// LambdaRef is the wavelength of the locus x-minimum.
	LambdaRef float64
	// Retries is the number of re-minimizations that were needed.
	Retries int
}

// For returns MatN when norm is set and Mat otherwise.
func (t *Transform) For(norm bool) Matrix {
	if norm {
		return t.MatN
	}
	return t.Mat
}

// problem holds the fixed inputs of one solve.
type problem struct {
	a21, a22, a33 float64
	main          Curve // base LMS on the 1 nm grid
	sumL, sumM    float64
	sumS, sumV    float64
	ref           *ReferenceSystem

	// vertex of the reference locus
	vLambda, vx, vy float64

	// fixed 1 nm search region for the computed x-minimum
	lo, hi float64
}

func newProblem(obs *refdata.ObserverData, ref *ReferenceSystem, window float64) *problem {
	main := Curve(refdata.Coarse(obs.LMSBase))
	p := &problem{a21: obs.KL, a22: obs.KM, main: main, ref: ref}

	l, m, s := main.Column(1), main.Column(2), main.Column(3)
	v := make([]float64, len(main))
	for i := range v {
		v[i] = fit.SigFigs(p.a21*l[i]+p.a22*m[i], refdata.VSigFigs)
	}
	p.sumL, p.sumM, p.sumS, p.sumV = floats.Sum(l), floats.Sum(m), floats.Sum(s), floats.Sum(v)
	p.a33 = fit.Round(p.sumV/p.sumS, matDecimals)

	p.vLambda, p.vx, p.vy = ref.Vertex()
	anchor := math.Round(p.vLambda)
	p.lo = math.Max(anchor-math.Floor(window), main[0][0])
	p.hi = math.Min(anchor+math.Floor(window), main[len(main)-1][0])
	return p
}

// start returns the first reference wavelength: lambda when it lies in the
// search region and the reference vertex otherwise.
func (p *problem) start(lambda float64) float64 {
	if lambda >= p.lo && lambda <= p.hi && lambda == math.Round(lambda) {
		return lambda
	}
	return math.Round(p.vLambda)
}

// lms returns the base fundamentals at the 1 nm sample closest to lambda.
func (p *problem) lms(lambda float64) ([3]float64, bool) {
	i := int(math.Round(lambda - p.main[0][0]))
	if i < 0 || i >= len(p.main) {
		return [3]float64{}, false
	}
	r := p.main[i]
	return [3]float64{r[1], r[2], r[3]}, true
}

// matrix solves a11 and a12 for the given a13 so that the X and Y sums
// agree and the locus passes through the reference x at lambdaRef.
func (p *problem) matrix(a13, lambdaRef float64) (Matrix, error) {
	c, ok := p.lms(lambdaRef)
	if !ok {
		return Matrix{}, fmt.Errorf("colorimetry: reference wavelength %g nm outside observer grid", lambdaRef)
	}
	xr, _ := p.ref.At(lambdaRef)
	yr := p.a21*c[0] + p.a22*c[1]
	zr := p.a33 * c[2]

	a := mat.NewDense(2, 2, []float64{
		p.sumL, p.sumM,
		c[0], c[1],
	})
	b := mat.NewVecDense(2, []float64{
		p.sumV - a13*p.sumS,
		xr*(yr+zr)/(1-xr) - a13*c[2],
	})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Matrix{}, fmt.Errorf("colorimetry: singular system at %g nm: %w", lambdaRef, err)
	}
	m := Matrix{
		{x.AtVec(0), x.AtVec(1), a13},
		{p.a21, p.a22, 0},
		{0, 0, p.a33},
	}
	return m.Round(matDecimals), nil
}

// locus returns the chromaticities under m on the 1 nm grid of the search
// region.
func (p *problem) locus(m Matrix) (lambda []float64, xy [][2]float64) {
	for _, r := range p.main {
		if r[0] < p.lo || r[0] > p.hi {
			continue
		}
		xyz := m.Apply([3]float64{r[1], r[2], r[3]})
		c := Project(xyz[0], xyz[1], xyz[2])
		lambda = append(lambda, r[0])
		xy = append(xy, [2]float64{c[0], c[1]})
	}
	return lambda, xy
}

// xMinimum returns the index of the smallest x in xy.
func xMinimum(xy [][2]float64) int {
	best := -1
	for i, c := range xy {
		if best < 0 || c[0] < xy[best][0] {
			best = i
		}
	}
	return best
}

// vertex returns the blue vertex of the locus under m: the x-minimum on the
// 1 nm grid of the search region, refined by the parabola through it and
// its neighbours.
func (p *problem) vertex(m Matrix) (lambda, x, y float64) {
	ls, xy := p.locus(m)
	i := xMinimum(xy)
	if i < 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	if i == 0 || i == len(xy)-1 {
		return ls[i], xy[i][0], xy[i][1]
	}
	xs := [3]float64{xy[i-1][0], xy[i][0], xy[i+1][0]}
	ys := [3]float64{xy[i-1][1], xy[i][1], xy[i+1][1]}
	t := parabolaVertex(xs)
	return ls[i] + t, parabolaAt(xs, t), parabolaAt(ys, t)
}

// parabolaVertex returns the offset in [-1, 1] of the extremum of the
// parabola through f at offsets -1, 0 and 1.
func parabolaVertex(f [3]float64) float64 {
	den := f[0] - 2*f[1] + f[2]
	if den == 0 {
		return 0
	}
	t := (f[0] - f[2]) / (2 * den)
	return math.Max(-1, math.Min(1, t))
}

// parabolaAt evaluates the parabola through f at offsets -1, 0 and 1 at
// offset t.
func parabolaAt(f [3]float64, t float64) float64 {
	return f[1] + t*(f[2]-f[0])/2 + t*t*(f[0]-2*f[1]+f[2])/2
}

// objective is the squared distance between the blue vertex of the locus
// under the matrix for a13 and the reference vertex.
func (p *problem) objective(a13, lambdaRef float64) float64 {
	m, err := p.matrix(a13, lambdaRef)
	if err != nil {
		return math.Inf(1)
	}
	_, x, y := p.vertex(m)
	d := (x-p.vx)*(x-p.vx) + (y-p.vy)*(y-p.vy)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

// solution is the outcome of one minimization at a fixed reference
// wavelength.
type solution struct {
	m         Matrix
	lambdaRef float64
	lambdaMin float64
	score     float64
}

// solveAt minimizes the objective over a13 with the reference wavelength
// held at lambdaRef.
func (p *problem) solveAt(lambdaRef, seed float64, settings fit.MinimizeSettings) (solution, error) {
	a13, score, err := fit.Minimize1D(func(a13 float64) float64 {
		return p.objective(a13, lambdaRef)
	}, seed, settings)
	if err != nil {
		return solution{}, err
	}
	m, err := p.matrix(a13, lambdaRef)
	if err != nil {
		return solution{}, err
	}
	ls, xy := p.locus(m)
	if len(xy) == 0 {
		return solution{}, fmt.Errorf("colorimetry: empty search region %g–%g nm", p.lo, p.hi)
	}
	return solution{m: m, lambdaRef: lambdaRef, lambdaMin: ls[xMinimum(xy)], score: score}, nil
}

// settle repeats step from lambda, moving the reference wavelength to the
// computed x-minimum, until the two agree. When the reference wavelength
// returns to one already tried, the tried solution closest to the
// reference vertex wins.
func settle(lambda float64, maxRetries int, step func(float64) (solution, error)) (solution, int, error) {
	tried := make(map[float64]solution)
	for retry := 0; ; retry++ {
		s, err := step(lambda)
		if err != nil {
			return solution{}, retry, err
		}
		if s.lambdaMin == s.lambdaRef {
			return s, retry, nil
		}
		tried[lambda] = s
		if _, seen := tried[s.lambdaMin]; seen {
			best := s
			for _, t := range tried {
				if t.score < best.score || (t.score == best.score && t.lambdaRef < best.lambdaRef) {
					best = t
				}
			}
			return best, retry, nil
		}
		if retry == maxRetries {
			return solution{}, retry, &NotConvergedError{Retries: retry, LambdaRef: s.lambdaRef, LambdaMin: s.lambdaMin}
		}
		monitoring.SolverRetries.Inc()
		lambda = s.lambdaMin
	}
}

// Solve searches the LMS to XYZ matrix of obs. The Y row is fixed by the
// luminance weights and the Z row by equal Y and Z areas. For each a13 the
// entries a11 and a12 follow from equal X and Y areas and from the locus
// passing through the reference x at lambdaRef; a13 itself minimizes the
// distance between the blue vertex of the computed locus and that of the
// reference locus. The reference wavelength moves to the computed
// x-minimum, within a fixed region around the reference vertex, until the
// two agree.
func Solve(obs *refdata.ObserverData, ref *ReferenceSystem, cfg SolverConfig) (*Transform, error) {
	cfg = cfg.withDefaults()
	p := newProblem(obs, ref, cfg.Window)
	settings := fit.DefaultMinimizeSettings()
	settings.Tolerance = cfg.Tolerance

	s, retries, err := settle(p.start(cfg.InitialLambda), cfg.MaxRetries, func(lambdaRef float64) (solution, error) {
		s, err := p.solveAt(lambdaRef, cfg.Seed, settings)
		if err == nil && s.lambdaMin != lambdaRef {
			monitoring.Logf("[Solver] field=%g age=%d: locus x-minimum at %g nm, reference %g nm",
				obs.FieldSize, obs.Age, s.lambdaMin, lambdaRef)
		}
		return s, err
	})
	if err != nil {
		monitoring.Logf("[Solver] field=%g age=%d: %v", obs.FieldSize, obs.Age, err)
		return nil, err
	}
	return &Transform{Mat: s.m, MatN: s.m, LambdaRef: s.lambdaRef, Retries: retries}, nil
}

// normalize sets t.MatN from the exact transformed result curve.
func (t *Transform) normalize(lmsResult Curve) {
	if fullDomain(lmsResult.Wavelengths()) {
		t.MatN = t.Mat
		return
	}
	sum := TransformCurve(t.Mat, lmsResult).Sums()
	n := t.Mat
	for j := 0; j < 3; j++ {
		n[0][j] = fit.Round(t.Mat[0][j]*sum[1]/sum[0], matDecimals)
		n[2][j] = fit.Round(t.Mat[2][j]*sum[1]/sum[2], matDecimals)
	}
	t.MatN = n
}

// Transform returns the solved matrix of the session observer, solving on
// first use.
func (s *Session) Transform() (*Transform, error) {
	if s.transform != nil {
		return s.transform, nil
	}
	obs, err := s.Observer()
	if err != nil {
		return nil, err
	}
	base, err := s.BaseLMS()
	if err != nil {
		return nil, err
	}
	ref, err := NewReferenceSystem(s.engine.Tables(), s.p.FieldSize)
	if err != nil {
		return nil, err
	}
	t, err := Solve(obs, ref, s.engine.solver)
	if err != nil {
		return nil, err
	}
	t.normalize(base.Result)
	s.transform = t
	return t, nil
}
