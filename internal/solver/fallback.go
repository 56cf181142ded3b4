package solver

import (
	"errors"

	"github.com/rs/zerolog/log"

	"market-tax-sim/internal/model"
)

// Fallback tries Primary and, only when it fails to converge, answers with
// Secondary. Any other error is returned as is.
type Fallback struct {
	Primary   Solver
	Secondary Solver
}

func (s *Fallback) Name() string { return NameAuto }

func (s *Fallback) Solve(ctx Context) (model.Equilibrium, error) {
	eq, err := s.Primary.Solve(ctx)
	if err == nil || !errors.Is(err, model.ErrNonConvergence) {
		return eq, err
	}

	log.Warn().
		Err(err).
		Str("primary", s.Primary.Name()).
		Str("secondary", s.Secondary.Name()).
		Float64("tax_rate", ctx.Market.TaxRate).
		Msg("equilibrium search fell back")

	eq, err = s.Secondary.Solve(ctx)
	if err != nil {
		return eq, err
	}
	eq.Fallback = true
	return eq, nil
}
