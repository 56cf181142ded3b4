// Package shock perturbs one side of a market by bounded random factors.
package shock

import (
	"errors"
	"math/rand"
	"time"

	"market-tax-sim/internal/model"
)

// Source yields uniform floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for a non-zero seed and a
// clock-seeded one otherwise.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Bounds are the closed factor ranges applied to the shocked side.
type Bounds struct {
	BaseLow        float64 `yaml:"base_low" json:"base_low"`
	BaseHigh       float64 `yaml:"base_high" json:"base_high"`
	ElasticityLow  float64 `yaml:"elasticity_low" json:"elasticity_low"`
	ElasticityHigh float64 `yaml:"elasticity_high" json:"elasticity_high"`
}

func DefaultBounds() Bounds {
	return Bounds{BaseLow: 0.8, BaseHigh: 1.2, ElasticityLow: 0.9, ElasticityHigh: 1.1}
}

// Validate keeps factors strictly positive so a shock can never flip a
// curve's slope sign.
func (b Bounds) Validate() error {
	if b.BaseLow <= 0 || b.BaseHigh < b.BaseLow {
		return errors.New("shock base factors must satisfy 0 < base_low <= base_high")
	}
	if b.ElasticityLow <= 0 || b.ElasticityHigh < b.ElasticityLow {
		return errors.New("shock elasticity factors must satisfy 0 < elasticity_low <= elasticity_high")
	}
	return nil
}

// Result describes one applied shock.
type Result struct {
	Side             model.Side `json:"side"`
	BaseFactor       float64    `json:"base_factor"`
	ElasticityFactor float64    `json:"elasticity_factor"`
}

// Generator draws shocks from an injected Source.
type Generator struct {
	src    Source
	bounds Bounds
}

func NewGenerator(src Source, bounds Bounds) (*Generator, error) {
	if src == nil {
		return nil, errors.New("shock source is nil")
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &Generator{src: src, bounds: bounds}, nil
}

// Apply returns a shocked copy of m. Draw order is side, base factor,
// elasticity factor, so a seeded source replays exactly.
func (g *Generator) Apply(m model.MarketParameters) (model.MarketParameters, Result) {
	res := Result{Side: model.SideDemand}
	if g.src.Float64() >= 0.5 {
		res.Side = model.SideSupply
	}
	res.BaseFactor = g.uniform(g.bounds.BaseLow, g.bounds.BaseHigh)
	res.ElasticityFactor = g.uniform(g.bounds.ElasticityLow, g.bounds.ElasticityHigh)

	switch res.Side {
	case model.SideDemand:
		m.BaseDemand *= res.BaseFactor
		m.DemandElasticity *= res.ElasticityFactor
	case model.SideSupply:
		m.BaseSupply *= res.BaseFactor
		m.SupplyElasticity *= res.ElasticityFactor
	}
	return m, res
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.src.Float64()
}
