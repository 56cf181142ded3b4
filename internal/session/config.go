package session

import (
	"market-tax-sim/internal/config"
	"market-tax-sim/internal/shock"
	"market-tax-sim/internal/solver"
)

// FromConfig builds a session from a loaded configuration. seed overrides
// the configured shock seed when non-zero.
func FromConfig(c *config.Config, seed int64, rec Recorder) (*Session, error) {
	s, err := solver.New(c.Solver.Name, c.Solver.Params)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = c.Shock.Seed
	}
	g, err := shock.NewGenerator(shock.NewSource(seed), c.Shock.Bounds)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Defaults: c.Market.ToModelParams(),
		Solver:   s,
		Shocks:   g,
		Range:    c.Sampling.ToPriceRange(),
		Recorder: rec,
	})
}
