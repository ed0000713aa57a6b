package colorimetry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ciefunctions/internal/fit"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

func solveFixture(t *testing.T, fieldSize float64, age int, cfg SolverConfig) (*refdata.ObserverData, *ReferenceSystem, *Transform, error) {
	t.Helper()
	e := newAnalyticEngine(t)
	obs, err := e.observers.Get(fieldSize, age)
	require.NoError(t, err)
	ref, err := NewReferenceSystem(e.Tables(), fieldSize)
	require.NoError(t, err)
	tr, err := Solve(obs, ref, cfg)
	return obs, ref, tr, err
}

func TestSolveConverges(t *testing.T) {
	testCases := []struct {
		name      string
		fieldSize float64
		age       int
	}{
		{"1deg_20", 1, 20},
		{"1deg_80", 1, 80},
		{"2deg_20", 2, 20},
		{"2deg_32", 2, 32},
		{"2deg_80", 2, 80},
		{"10deg_20", 10, 20},
		{"10deg_32", 10, 32},
		{"10deg_80", 10, 80},
		{"1.5deg_70", 1.5, 70},
	}

	cfg := DefaultSolverConfig()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			obs, ref, tr, err := solveFixture(t, tc.fieldSize, tc.age, cfg)
			require.NoError(t, err)
			assert.LessOrEqual(t, tr.Retries, cfg.MaxRetries)

			m := tr.Mat
			assert.Equal(t, [3]float64{obs.KL, obs.KM, 0}, m[1], "Y row is the luminance weighting")
			assert.Equal(t, 0.0, m[2][0])
			assert.Equal(t, 0.0, m[2][1])
			assert.Equal(t, m, tr.MatN, "the solver reports the plain matrix for both variants")

			p := newProblem(obs, ref, cfg.Window)
			assert.Equal(t, p.a33, m[2][2])
			assert.GreaterOrEqual(t, tr.LambdaRef, p.lo)
			assert.LessOrEqual(t, tr.LambdaRef, p.hi)
			vl, _, _ := ref.Vertex()
			assert.InDelta(t, vl, tr.LambdaRef, cfg.Window+1, "the reference stays near the reference vertex")

			// Equal X and Y areas on the main grid.
			sumX := m[0][0]*p.sumL + m[0][1]*p.sumM + m[0][2]*p.sumS
			assert.InDelta(t, p.sumV, sumX, 1e-5)

			// The locus passes through the reference x at the reference
			// wavelength.
			c, ok := p.lms(tr.LambdaRef)
			require.True(t, ok)
			xyz := m.Apply(c)
			xr, _ := ref.At(tr.LambdaRef)
			assert.InDelta(t, xr, Project(xyz[0], xyz[1], xyz[2])[0], 1e-6)
		})
	}
}

func TestSolveMatchesReferenceVertex(t *testing.T) {
	obs, ref, tr, err := solveFixture(t, 2, 32, DefaultSolverConfig())
	require.NoError(t, err)
	p := newProblem(obs, ref, DefaultSolverConfig().Window)

	a13 := tr.Mat[0][2]
	assert.Greater(t, a13, 0.2)
	assert.Less(t, a13, 0.6)

	// The solved a13 is at least as close to the reference vertex as its
	// neighbours.
	best := p.objective(a13, tr.LambdaRef)
	for _, d := range []float64{-0.05, -0.01, 0.01, 0.05} {
		assert.LessOrEqual(t, best, p.objective(a13+d, tr.LambdaRef), "a13%+g", d)
	}

	vl, _, _ := p.vertex(tr.Mat)
	assert.GreaterOrEqual(t, vl, p.lo)
	assert.LessOrEqual(t, vl, p.hi)
}

func TestSolveReproducesLuminance(t *testing.T) {
	obs, _, tr, err := solveFixture(t, 2, 32, DefaultSolverConfig())
	require.NoError(t, err)

	for _, r := range refdata.Coarse(obs.LMSBase) {
		y := tr.Mat.Apply([3]float64{r[1], r[2], r[3]})[1]
		v := fit.SigFigs(obs.KL*r[1]+obs.KM*r[2], refdata.VSigFigs)
		assert.InDelta(t, v, y, 1e-6, "Y at %g nm", r[0])
	}
}

func TestSettle(t *testing.T) {
	// moves returns a step whose computed minimum follows next.
	moves := func(next map[float64]float64, score map[float64]float64) func(float64) (solution, error) {
		return func(l float64) (solution, error) {
			n, ok := next[l]
			if !ok {
				n = l
			}
			return solution{lambdaRef: l, lambdaMin: n, score: score[l]}, nil
		}
	}

	testCases := []struct {
		name        string
		start       float64
		next, score map[float64]float64
		wantLambda  float64
		wantRetries int
	}{
		{"immediate", 502, nil, nil, 502, 0},
		{"one_move", 502, map[float64]float64{502: 504}, nil, 504, 1},
		{"chain", 500, map[float64]float64{500: 501, 501: 503}, nil, 503, 2},
		{"two_cycle", 502, map[float64]float64{502: 503, 503: 502},
			map[float64]float64{502: 2e-6, 503: 1e-6}, 503, 1},
		{"cycle_tie_prefers_shorter", 503, map[float64]float64{503: 502, 502: 503},
			map[float64]float64{502: 1e-6, 503: 1e-6}, 502, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, retries, err := settle(tc.start, 25, moves(tc.next, tc.score))
			require.NoError(t, err)
			assert.Equal(t, tc.wantLambda, s.lambdaRef)
			assert.Equal(t, tc.wantRetries, retries)
		})
	}
}

func TestSettleNotConverged(t *testing.T) {
	step := func(l float64) (solution, error) {
		return solution{lambdaRef: l, lambdaMin: l + 1}, nil
	}
	_, retries, err := settle(480, 3, step)
	require.Error(t, err)
	assert.Equal(t, 3, retries)
	assert.True(t, errors.Is(err, ErrNotConverged))

	var nc *NotConvergedError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, 3, nc.Retries)
	assert.Equal(t, 483.0, nc.LambdaRef)
	assert.Equal(t, 484.0, nc.LambdaMin)
	assert.Contains(t, nc.Error(), "after 3 retries")
}

func TestSettleStepError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := settle(502, 3, func(float64) (solution, error) { return solution{}, boom })
	assert.ErrorIs(t, err, boom)
}

func TestProblemStart(t *testing.T) {
	obs, ref, _, err := solveFixture(t, 2, 32, DefaultSolverConfig())
	require.NoError(t, err)
	p := newProblem(obs, ref, 20)
	vl, _, _ := ref.Vertex()
	anchor := math.Round(vl)

	assert.Equal(t, anchor-20, p.lo)
	assert.Equal(t, anchor+20, p.hi)
	assert.Equal(t, p.lo, p.start(p.lo))
	assert.Equal(t, anchor, p.start(420), "outside the region")
	assert.Equal(t, anchor, p.start(anchor+0.5), "off the 1 nm grid")
}

func TestParabolaVertex(t *testing.T) {
	testCases := []struct {
		name string
		f    [3]float64
		want float64
	}{
		{"centred", [3]float64{1, 0, 1}, 0},
		{"left", [3]float64{0.25, 0.25, 2.25}, -0.5},
		{"flat", [3]float64{1, 1, 1}, 0},
		{"clamped", [3]float64{0, 0.9, 2}, -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, parabolaVertex(tc.f), 1e-12)
		})
	}
	// (t+0.5)^2 sampled at -1, 0, 1.
	f := [3]float64{0.25, 0.25, 2.25}
	assert.InDelta(t, 0.0, parabolaAt(f, -0.5), 1e-12)
	assert.InDelta(t, 1.0, parabolaAt(f, 0.5), 1e-12)
}

func TestProblemMatrixOutsideGrid(t *testing.T) {
	obs, ref, _, err := solveFixture(t, 2, 32, DefaultSolverConfig())
	require.NoError(t, err)
	p := newProblem(obs, ref, DefaultSolverConfig().Window)

	_, err = p.matrix(0.39, 380)
	assert.Error(t, err)
	_, ok := p.lms(831)
	assert.False(t, ok)
}

func TestSolverConfigDefaults(t *testing.T) {
	assert.Equal(t, DefaultSolverConfig(), SolverConfig{}.withDefaults())

	custom := SolverConfig{Seed: 0.5, Tolerance: 1e-8, InitialLambda: 505, Window: 10, MaxRetries: 3}
	assert.Equal(t, custom, custom.withDefaults())
}

func TestTransformNormalize(t *testing.T) {
	e := newAnalyticEngine(t)

	full := e.NewSession(DefaultParams())
	tr, err := full.Transform()
	require.NoError(t, err)
	assert.Equal(t, tr.Mat, tr.MatN, "full domain leaves the matrix alone")
	again, err := full.Transform()
	require.NoError(t, err)
	assert.Same(t, tr, again)

	short := e.NewSession(paramsWith(func(p *Params) { p.Max = 700 }))
	tn, err := short.Transform()
	require.NoError(t, err)
	assert.Equal(t, tr.Mat, tn.Mat, "the solve uses the full main grid")
	assert.NotEqual(t, tn.Mat, tn.MatN)
	assert.Equal(t, tn.Mat[1], tn.MatN[1])
	assert.Equal(t, tn.Mat, tn.For(false))
	assert.Equal(t, tn.MatN, tn.For(true))

	base, err := short.BaseLMS()
	require.NoError(t, err)
	sum := TransformCurve(tn.MatN, base.Result).Sums()
	assert.InEpsilon(t, sum[1], sum[0], 1e-6)
	assert.InEpsilon(t, sum[1], sum[2], 1e-6)
}
