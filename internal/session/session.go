// Package session owns one market simulation: its parameters, the current
// equilibrium and welfare, and the append-only update history.
package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"market-tax-sim/internal/model"
	"market-tax-sim/internal/shock"
	"market-tax-sim/internal/solver"
	"market-tax-sim/internal/welfare"
)

// History event labels.
const (
	EventInit             = "init"
	EventReset            = "reset"
	EventTaxRate          = "tax_rate"
	EventDemandElasticity = "demand_elasticity"
	EventSupplyElasticity = "supply_elasticity"
	EventShockPrefix      = "shock:"
)

// Recorder observes accepted and rejected updates. Implementations must be
// safe for concurrent use across sessions.
type Recorder interface {
	RecordUpdate(event string, err error)
	RecordSolve(eq model.Equilibrium)
	RecordNegativeDeadweightLoss()
}

type noopRecorder struct{}

func (noopRecorder) RecordUpdate(string, error)    {}
func (noopRecorder) RecordSolve(model.Equilibrium) {}
func (noopRecorder) RecordNegativeDeadweightLoss() {}

// Options configure a Session. Zero values take defaults.
type Options struct {
	Defaults model.MarketParameters
	Solver   solver.Solver
	Shocks   *shock.Generator
	Range    model.PriceRange
	Recorder Recorder
}

// State is a consistent view of the session at one instant.
type State struct {
	Parameters  model.MarketParameters `json:"parameters"`
	Equilibrium model.Equilibrium      `json:"equilibrium"`
	Welfare     model.WelfareSnapshot  `json:"welfare"`
}

// Session serializes every mutation as one unit: mutate a copy, validate,
// solve, account, then commit and append history. A failed step leaves the
// committed state untouched.
type Session struct {
	mu sync.Mutex

	defaults   model.MarketParameters
	solver     solver.Solver
	accountant *welfare.Accountant
	shocks     *shock.Generator
	rng        model.PriceRange
	rec        Recorder

	state   State
	history []model.HistoryEntry
}

// New validates the defaults, solves the starting market and records it as
// history entry zero.
func New(opts Options) (*Session, error) {
	if opts.Defaults == (model.MarketParameters{}) {
		opts.Defaults = model.DefaultParameters()
	}
	if opts.Solver == nil {
		opts.Solver = solver.ClosedForm{}
	}
	if opts.Range == (model.PriceRange{}) {
		opts.Range = model.DefaultPriceRange()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.Shocks == nil {
		g, err := shock.NewGenerator(shock.NewSource(0), shock.DefaultBounds())
		if err != nil {
			return nil, err
		}
		opts.Shocks = g
	}
	if err := opts.Range.Validate(); err != nil {
		return nil, fmt.Errorf("price range: %w", err)
	}

	s := &Session{
		defaults:   opts.Defaults,
		solver:     opts.Solver,
		accountant: welfare.New(opts.Solver),
		shocks:     opts.Shocks,
		rng:        opts.Range,
		rec:        opts.Recorder,
	}
	next, err := s.evaluate(opts.Defaults, opts.Defaults.ReferencePrice)
	if err != nil {
		return nil, fmt.Errorf("initial market: %w", err)
	}
	s.commit(EventInit, next)
	return s, nil
}

// evaluate runs validate, solve and account against m without touching s.
func (s *Session) evaluate(m model.MarketParameters, seed float64) (State, error) {
	if err := m.Validate(); err != nil {
		return State{}, err
	}
	eq, err := s.solver.Solve(solver.Context{Market: m, SeedPrice: seed})
	if err != nil {
		return State{}, fmt.Errorf("solve: %w", err)
	}
	s.rec.RecordSolve(eq)
	snap, err := s.accountant.Account(m, eq)
	if err != nil {
		return State{}, fmt.Errorf("welfare: %w", err)
	}
	if snap.Inconsistent {
		s.rec.RecordNegativeDeadweightLoss()
	}
	return State{Parameters: m, Equilibrium: eq, Welfare: snap}, nil
}

func (s *Session) commit(event string, next State) {
	s.state = next
	s.history = append(s.history, model.HistoryEntry{
		Index:        len(s.history),
		Event:        event,
		TaxRate:      next.Parameters.TaxRate,
		Price:        next.Equilibrium.Price,
		Quantity:     next.Equilibrium.Quantity,
		TotalWelfare: next.Welfare.TotalWelfare,
	})
}

// update applies mutate to a copy of the live parameters. Caller holds mu.
func (s *Session) update(event string, mutate func(*model.MarketParameters)) (State, error) {
	m := s.state.Parameters
	mutate(&m)
	next, err := s.evaluate(m, s.state.Equilibrium.Price)
	s.rec.RecordUpdate(event, err)
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("market update rejected")
		return State{}, err
	}
	s.commit(event, next)
	return next, nil
}

// SetTaxRate re-solves the market under a new per-unit tax (>= 0).
func (s *Session) SetTaxRate(v float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(EventTaxRate, func(m *model.MarketParameters) { m.TaxRate = v })
}

// SetDemandElasticity changes the demand slope (< 0). The curve keeps
// passing through the reference point.
func (s *Session) SetDemandElasticity(v float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(EventDemandElasticity, func(m *model.MarketParameters) { m.DemandElasticity = v })
}

// SetSupplyElasticity changes the supply slope (> 0).
func (s *Session) SetSupplyElasticity(v float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(EventSupplyElasticity, func(m *model.MarketParameters) { m.SupplyElasticity = v })
}

// ApplyShock perturbs a randomly chosen side and re-solves.
func (s *Session) ApplyShock() (shock.Result, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shocked, res := s.shocks.Apply(s.state.Parameters)
	next, err := s.update(EventShockPrefix+string(res.Side), func(m *model.MarketParameters) { *m = shocked })
	if err != nil {
		return shock.Result{}, State{}, err
	}
	return res, next, nil
}

// Reset restores the default parameters and starts a fresh history.
func (s *Session) Reset() (model.MarketParameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.evaluate(s.defaults, s.defaults.ReferencePrice)
	s.rec.RecordUpdate(EventReset, err)
	if err != nil {
		return model.MarketParameters{}, err
	}
	s.history = nil
	s.commit(EventReset, next)
	log.Info().Float64("price", next.Equilibrium.Price).Float64("quantity", next.Equilibrium.Quantity).Msg("market reset")
	return next.Parameters, nil
}

// State returns parameters, equilibrium and welfare from the same commit.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Parameters() model.MarketParameters { return s.State().Parameters }

func (s *Session) Equilibrium() model.Equilibrium { return s.State().Equilibrium }

func (s *Session) Welfare() model.WelfareSnapshot { return s.State().Welfare }

// SolverName reports which solver this session runs.
func (s *Session) SolverName() string { return s.solver.Name() }

// History returns a copy of the log in insertion order.
func (s *Session) History() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// CurveSamples evaluates the current curves over r, or over the session's
// default range when r is zero.
func (s *Session) CurveSamples(r model.PriceRange) ([]model.CurveSample, error) {
	if r == (model.PriceRange{}) {
		r = s.rng
	}
	return s.Parameters().Samples(r)
}
