package solver

import (
	"fmt"
	"math"

	"market-tax-sim/internal/model"
)

// IterativeParams tunes the multiplicative price search.
type IterativeParams struct {
	// Step is the initial relative price move per round (0.01 = 1%).
	Step float64
	// MaxRounds caps the search; hitting it is a NonConvergence.
	MaxRounds int
	// Tolerance is the accepted |demand - supply| in quantity units.
	Tolerance float64
	// Damping multiplies Step whenever the search reverses direction.
	// 1 keeps the step fixed.
	Damping float64
}

// Bounds accepted for user-supplied iterative params. Tolerance may not
// exceed the 0.1 clearing contract.
const (
	MaxIterativeRounds = 10000
	MaxTolerance       = 0.1
)

// DefaultIterativeParams keeps the tolerance well below MaxTolerance so
// welfare derived from the cleared quantity stays monotone in the tax.
func DefaultIterativeParams() IterativeParams {
	return IterativeParams{Step: 0.01, MaxRounds: 100, Tolerance: 1e-6, Damping: 0.5}
}

// IterativeParamsFrom reads step, max_rounds, tolerance and damping from a
// loosely typed options map. Missing keys take defaults; present keys must
// be numbers inside the accepted ranges.
func IterativeParamsFrom(params map[string]any) (IterativeParams, error) {
	d := DefaultIterativeParams()

	step, err := numOption(params, "step", d.Step)
	if err != nil {
		return IterativeParams{}, err
	}
	rounds, err := numOption(params, "max_rounds", float64(d.MaxRounds))
	if err != nil {
		return IterativeParams{}, err
	}
	tol, err := numOption(params, "tolerance", d.Tolerance)
	if err != nil {
		return IterativeParams{}, err
	}
	damping, err := numOption(params, "damping", d.Damping)
	if err != nil {
		return IterativeParams{}, err
	}

	if !(step > 0 && step < 1) {
		return IterativeParams{}, fmt.Errorf("step must be in (0, 1), got %v", step)
	}
	if !(rounds >= 1 && rounds <= MaxIterativeRounds) || rounds != math.Trunc(rounds) {
		return IterativeParams{}, fmt.Errorf("max_rounds must be a whole number in [1, %d], got %v", MaxIterativeRounds, rounds)
	}
	if !(tol > 0 && tol <= MaxTolerance) {
		return IterativeParams{}, fmt.Errorf("tolerance must be in (0, %v], got %v", MaxTolerance, tol)
	}
	if !(damping > 0 && damping <= 1) {
		return IterativeParams{}, fmt.Errorf("damping must be in (0, 1], got %v", damping)
	}
	return IterativeParams{Step: step, MaxRounds: int(rounds), Tolerance: tol, Damping: damping}, nil
}

// normalized fills unset or out-of-range fields of a directly built
// IterativeParams with defaults.
func (p IterativeParams) normalized() IterativeParams {
	d := DefaultIterativeParams()
	if !(p.Step > 0 && p.Step < 1) {
		p.Step = d.Step
	}
	if p.MaxRounds <= 0 {
		p.MaxRounds = d.MaxRounds
	}
	if p.MaxRounds > MaxIterativeRounds {
		p.MaxRounds = MaxIterativeRounds
	}
	if !(p.Tolerance > 0 && p.Tolerance <= MaxTolerance) {
		p.Tolerance = d.Tolerance
	}
	if !(p.Damping > 0 && p.Damping <= 1) {
		p.Damping = d.Damping
	}
	return p
}

// Iterative nudges the price up while demand exceeds supply and down
// otherwise, until the gap is inside tolerance.
type Iterative struct {
	Params IterativeParams
}

func (s *Iterative) Name() string { return NameIterative }

func (s *Iterative) Solve(ctx Context) (model.Equilibrium, error) {
	m := ctx.Market
	if err := checkDegenerate(m); err != nil {
		return model.Equilibrium{}, err
	}
	p := s.Params.normalized()

	price := ctx.SeedPrice
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		price = m.ReferencePrice
	}
	step := p.Step
	dir := 0
	var gap float64

	for round := 1; round <= p.MaxRounds; round++ {
		demand := m.Demand(price)
		supply := m.TaxedSupply(price, m.TaxRate)
		gap = demand - supply
		if math.Abs(gap) < p.Tolerance {
			return model.Equilibrium{
				Price:    price,
				Quantity: math.Max(0, math.Min(demand, supply)),
				Rounds:   round,
				Solver:   NameIterative,
			}, nil
		}

		next := -1
		if gap > 0 {
			next = 1
		}
		if dir != 0 && next != dir {
			step *= p.Damping
		}
		dir = next
		price *= 1 + float64(next)*step
	}

	return model.Equilibrium{}, &model.NonConvergenceError{
		Solver: NameIterative,
		Rounds: p.MaxRounds,
		Price:  price,
		Gap:    math.Abs(gap),
	}
}
