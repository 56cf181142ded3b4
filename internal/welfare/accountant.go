// Package welfare splits the gains from trade at an equilibrium into
// consumer surplus, producer surplus and tax revenue, and measures the
// deadweight loss against the untaxed market.
package welfare

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"market-tax-sim/internal/model"
	"market-tax-sim/internal/solver"
)

// Accountant prices welfare at an equilibrium. The counterfactual is solved
// with the same Solver that produced the taxed point.
type Accountant struct {
	Solver solver.Solver
}

func New(s solver.Solver) *Accountant {
	return &Accountant{Solver: s}
}

// Surplus holds the three additive welfare components.
type Surplus struct {
	Consumer float64
	Producer float64
	Tax      float64
}

func (s Surplus) Total() float64 { return s.Consumer + s.Producer + s.Tax }

// SurplusAt computes the triangles between each curve and its price line,
// from zero to the equilibrium quantity.
func SurplusAt(m model.MarketParameters, eq model.Equilibrium) Surplus {
	q := eq.Quantity
	return Surplus{
		Consumer: 0.5 * (m.DemandIntercept() - eq.Price) * q,
		Producer: 0.5 * (eq.ProducerPrice(m.TaxRate) - m.SupplyIntercept()) * q,
		Tax:      m.TaxRate * q,
	}
}

// Account builds the full snapshot. m is never modified; the untaxed market
// is solved on a copy.
func (a *Accountant) Account(m model.MarketParameters, eq model.Equilibrium) (model.WelfareSnapshot, error) {
	s := SurplusAt(m, eq)
	snap := model.WelfareSnapshot{
		ConsumerSurplus: s.Consumer,
		ProducerSurplus: s.Producer,
		TaxRevenue:      s.Tax,
		TotalWelfare:    s.Total(),
	}

	baseline := snap.TotalWelfare
	if m.TaxRate != 0 {
		untaxed := m.WithTax(0)
		eq0, err := a.Solver.Solve(solver.Context{Market: untaxed, SeedPrice: untaxed.ReferencePrice})
		if err != nil {
			return model.WelfareSnapshot{}, fmt.Errorf("untaxed counterfactual: %w", err)
		}
		baseline = SurplusAt(untaxed, eq0).Total()
	}

	raw := baseline - snap.TotalWelfare
	snap.RawDeadweightLoss = raw
	snap.DeadweightLoss = raw
	if raw < 0 {
		snap.DeadweightLoss = 0
		snap.Inconsistent = true
		log.Warn().
			Float64("raw_deadweight_loss", raw).
			Float64("tax_rate", m.TaxRate).
			Float64("price", eq.Price).
			Float64("quantity", eq.Quantity).
			Str("solver", eq.Solver).
			Msg("taxed welfare exceeds untaxed counterfactual")
	}
	return snap, nil
}

// Check reports an inconsistent snapshot as ErrNegativeDeadweightLoss.
func Check(snap model.WelfareSnapshot) error {
	if snap.Inconsistent {
		return fmt.Errorf("%w: raw value %.6f", model.ErrNegativeDeadweightLoss, snap.RawDeadweightLoss)
	}
	return nil
}
