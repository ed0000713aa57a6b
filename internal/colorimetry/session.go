package colorimetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// Engine computes quantities against one set of reference tables. It is
// safe for concurrent use.
type Engine struct {
	observers *refdata.ObserverCache
	solver    SolverConfig
}

// NewEngine returns an engine drawing observer data from cache.
func NewEngine(cache *refdata.ObserverCache, solver SolverConfig) *Engine {
	return &Engine{observers: cache, solver: solver.withDefaults()}
}

// Tables returns the reference tables the engine computes from.
func (e *Engine) Tables() *refdata.Tables {
	return e.observers.Tables()
}

// Session holds the intermediate results of the computations for one
// parameter set. A Session is not safe for concurrent use.
type Session struct {
	engine *Engine
	p      Params

	obs       *refdata.ObserverData
	baseLMS   *CurvePair
	transform *Transform
}

// NewSession starts a session for p.
func (e *Engine) NewSession(p Params) *Session {
	return &Session{engine: e, p: p}
}

// Params returns the session parameters.
func (s *Session) Params() Params { return s.p }

// Observer returns the cone fundamentals of the session observer.
func (s *Session) Observer() (*refdata.ObserverData, error) {
	if s.obs != nil {
		return s.obs, nil
	}
	obs, err := s.engine.observers.Get(s.p.FieldSize, s.p.Age)
	if err != nil {
		return nil, fmt.Errorf("observer %g°/%d: %w", s.p.FieldSize, s.p.Age, err)
	}
	s.obs = obs
	return obs, nil
}

// Bundle computes q and returns its named arrays.
func (s *Session) Bundle(q Quantity) (jsonfmt.Bundle, error) {
	switch q {
	case LMS:
		cp, err := s.LMS()
		if err != nil {
			return nil, err
		}
		return cp.bundle(), nil
	case MacLeodBoynton:
		return s.MacLeodBoynton()
	case Maxwellian:
		return s.Maxwellian()
	case XYZ:
		return s.XYZ()
	case XY:
		return s.XY()
	case XYZPurple:
		return s.XYZPurple()
	case XYPurple:
		return s.XYPurple()
	case XYZStandard:
		return s.XYZStandard()
	case XYStandard:
		return s.XYStandard()
	}
	return nil, fmt.Errorf("colorimetry: unknown quantity %d", int(q))
}

// Result is a computed and serialized quantity.
type Result struct {
	Quantity Quantity
	Format   FormatKey
	Bundle   jsonfmt.Bundle
	JSON     []byte
}

// Compute runs the full pipeline for q under p: the stage computation
// followed by serialization under the matching format table row.
func (e *Engine) Compute(q Quantity, p Params) (*Result, error) {
	start := time.Now()
	res, err := e.compute(q, p)
	monitoring.ObserveComputation(q.String(), outcome(err), time.Since(start))
	return res, err
}

func (e *Engine) compute(q Quantity, p Params) (*Result, error) {
	b, err := e.NewSession(p).Bundle(q)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", q, err)
	}
	key := FormatFor(q, p)
	text, err := Encode(b, key)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", q, err)
	}
	return &Result{Quantity: q, Format: key, Bundle: b, JSON: text}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConverged):
		return "not_converged"
	case errors.Is(err, jsonfmt.ErrShapeMismatch):
		return "shape_mismatch"
	}
	return "error"
}
