package colorimetry

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLMSGridsAgree(t *testing.T) {
	e := newAnalyticEngine(t)
	for _, base := range []bool{false, true} {
		p := paramsWith(func(p *Params) { p.FieldSize, p.Age, p.Base = 1, 25, base })
		cp, err := e.NewSession(p).LMS()
		require.NoError(t, err)

		require.Len(t, cp.Result, 441)
		require.Len(t, cp.Plot, 4401)
		assert.Equal(t, 390.0, cp.Result[0][0])
		assert.Equal(t, 830.0, cp.Result[440][0])

		for _, r := range cp.Result {
			k := cp.Plot.Index(r[0])
			require.GreaterOrEqual(t, k, 0, "plot has no sample at %g nm", r[0])
			for c := 1; c <= 3; c++ {
				assert.InDelta(t, r[c], cp.Plot[k][c], 1e-9, "channel %d at %g nm", c, r[0])
			}
		}
	}
}

func TestLMSPeaksAtOne(t *testing.T) {
	cp, err := newAnalyticEngine(t).NewSession(DefaultParams()).LMS()
	require.NoError(t, err)

	for c := 1; c <= 3; c++ {
		peak := 0.0
		for _, r := range cp.Plot {
			peak = math.Max(peak, r[c])
		}
		assert.InDelta(t, 1, peak, 1e-6, "channel %d", c)
	}
}

func TestLMSStepAndDomain(t *testing.T) {
	p := paramsWith(func(p *Params) { p.Min, p.Max, p.Step = 395, 700, 0.5 })
	cp, err := newAnalyticEngine(t).NewSession(p).LMS()
	require.NoError(t, err)

	require.Len(t, cp.Result, 611)
	assert.Equal(t, 395.0, cp.Result[0][0])
	assert.Equal(t, 395.5, cp.Result[1][0])
	assert.Equal(t, 700.0, cp.Result[610][0])
	assert.Equal(t, 700.0, cp.Plot[len(cp.Plot)-1][0])
}

func TestLMSLogZeroIsNull(t *testing.T) {
	e := newAnalyticEngine(t)
	p := paramsWith(func(p *Params) { p.Log = true })
	res, err := e.Compute(LMS, p)
	require.NoError(t, err)
	assert.Equal(t, FormatLMSLog, res.Format)

	rows := res.Bundle[0].Value.([][]float64)
	k := Curve(rows).Index(700)
	require.GreaterOrEqual(t, k, 0)
	assert.True(t, math.IsInf(rows[k][3], -1), "S cone is blank at 700 nm")
	assert.Less(t, rows[k][1], 0.0)

	assert.Contains(t, string(res.JSON), "[700.0,")
	assert.True(t, json.Valid(res.JSON))

	var decoded struct {
		Result [][]*float64 `json:"result"`
	}
	require.NoError(t, json.Unmarshal(res.JSON, &decoded))
	assert.Nil(t, decoded.Result[k][3])
	require.NotNil(t, decoded.Result[k][1])
}

func TestLMSScientificText(t *testing.T) {
	p := paramsWith(func(p *Params) { p.FieldSize, p.Age = 1, 25 })
	res, err := newAnalyticEngine(t).Compute(LMS, p)
	require.NoError(t, err)
	assert.Equal(t, FormatLMS, res.Format)

	var decoded struct {
		Result [][]json.Number `json:"result"`
		Plot   [][]json.Number `json:"plot"`
	}
	dec := json.NewDecoder(strings.NewReader(string(res.JSON)))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&decoded))

	require.Len(t, decoded.Result, 441)
	assert.Equal(t, json.Number("390.0"), decoded.Result[0][0])
	assert.Equal(t, json.Number("830.0"), decoded.Result[440][0])

	sci := regexp.MustCompile(`^-?\d\.\d{5}e[+-]\d{2}$`)
	for _, row := range decoded.Result {
		require.Len(t, row, 4)
		for _, v := range row[1:] {
			assert.Regexp(t, sci, string(v))
		}
	}
}

func TestBaseLMSIsCached(t *testing.T) {
	s := newAnalyticEngine(t).NewSession(DefaultParams())
	a, err := s.BaseLMS()
	require.NoError(t, err)
	b, err := s.BaseLMS()
	require.NoError(t, err)
	assert.Same(t, &a.Result[0][0], &b.Result[0][0])

	// Linear base LMS asked through LMS is the cached curve too.
	s.p.Base = true
	c, err := s.LMS()
	require.NoError(t, err)
	assert.Same(t, &a.Result[0][0], &c.Result[0][0])
}
