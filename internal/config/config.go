package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"market-tax-sim/internal/model"
	"market-tax-sim/internal/shock"
	"market-tax-sim/internal/solver"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load market parameters from a preset (e.g. examples/markets/*.yaml).
	// If both MarketFile and Market are provided, Market overrides MarketFile.
	MarketFile string         `yaml:"market_file"`
	Market     MarketConfig   `yaml:"market"`
	Solver     SolverConfig   `yaml:"solver"`
	Shock      ShockConfig    `yaml:"shock"`
	Sampling   SamplingConfig `yaml:"sampling"`
}

type MarketConfig struct {
	Name             string  `yaml:"name"`
	ReferencePrice   float64 `yaml:"reference_price"`
	BaseDemand       float64 `yaml:"base_demand"`
	BaseSupply       float64 `yaml:"base_supply"`
	DemandElasticity float64 `yaml:"demand_elasticity"`
	SupplyElasticity float64 `yaml:"supply_elasticity"`
	TaxRate          float64 `yaml:"tax_rate"`
}

type SolverConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

type ShockConfig struct {
	// Seed 0 seeds from the clock.
	Seed   int64        `yaml:"seed"`
	Bounds shock.Bounds `yaml:",inline"`
}

type SamplingConfig struct {
	MinPrice float64 `yaml:"min_price"`
	MaxPrice float64 `yaml:"max_price"`
	Points   int     `yaml:"points"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := model.DefaultParameters()
	r := model.DefaultPriceRange()
	return &Config{
		Market: MarketConfig{
			Name:             "default",
			ReferencePrice:   d.ReferencePrice,
			BaseDemand:       d.BaseDemand,
			BaseSupply:       d.BaseSupply,
			DemandElasticity: d.DemandElasticity,
			SupplyElasticity: d.SupplyElasticity,
			TaxRate:          d.TaxRate,
		},
		Solver:   SolverConfig{Name: solver.NameClosedForm},
		Shock:    ShockConfig{Bounds: shock.DefaultBounds()},
		Sampling: SamplingConfig{MinPrice: r.Min, MaxPrice: r.Max, Points: r.Points},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If market_file is set, load it and merge in any explicit overrides from c.Market.
	if c.MarketFile != "" {
		marketPath := c.MarketFile
		if !filepath.IsAbs(marketPath) {
			// Prefer paths relative to the config file, then fall back to cwd.
			cand := filepath.Join(filepath.Dir(path), marketPath)
			if _, err := os.Stat(cand); err == nil {
				marketPath = cand
			}
		}
		loaded, err := LoadMarketFile(marketPath)
		if err != nil {
			return nil, err
		}
		c.Market = MergeMarket(loaded, c.Market)
	}
	return &c, nil
}

// ApplyDefaults fills every unset field from Default. Tax rate is left as
// given since zero is meaningful.
func (c *Config) ApplyDefaults() {
	d := Default()
	c.Market = MergeMarket(d.Market, c.Market)
	if c.Solver.Name == "" {
		c.Solver.Name = d.Solver.Name
	}
	b := &c.Shock.Bounds
	if b.BaseLow == 0 && b.BaseHigh == 0 {
		b.BaseLow, b.BaseHigh = d.Shock.Bounds.BaseLow, d.Shock.Bounds.BaseHigh
	}
	if b.ElasticityLow == 0 && b.ElasticityHigh == 0 {
		b.ElasticityLow, b.ElasticityHigh = d.Shock.Bounds.ElasticityLow, d.Shock.Bounds.ElasticityHigh
	}
	if c.Sampling == (SamplingConfig{}) {
		c.Sampling = d.Sampling
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Market.ToModelParams().Validate(); err != nil {
		return fmt.Errorf("market config invalid: %w", err)
	}
	if _, err := solver.New(c.Solver.Name, c.Solver.Params); err != nil {
		return fmt.Errorf("solver config invalid: %w", err)
	}
	if err := c.Shock.Bounds.Validate(); err != nil {
		return fmt.Errorf("shock config invalid: %w", err)
	}
	if err := c.Sampling.ToPriceRange().Validate(); err != nil {
		return fmt.Errorf("sampling config invalid: %w", err)
	}
	return nil
}

func (m MarketConfig) ToModelParams() model.MarketParameters {
	return model.MarketParameters{
		ReferencePrice:   m.ReferencePrice,
		BaseDemand:       m.BaseDemand,
		BaseSupply:       m.BaseSupply,
		DemandElasticity: m.DemandElasticity,
		SupplyElasticity: m.SupplyElasticity,
		TaxRate:          m.TaxRate,
	}
}

func (s SamplingConfig) ToPriceRange() model.PriceRange {
	return model.PriceRange{Min: s.MinPrice, Max: s.MaxPrice, Points: s.Points}
}

type marketFileWrapper struct {
	Market MarketConfig `yaml:"market"`
}

// LoadMarketFile reads a preset holding a top-level `market:` block.
func LoadMarketFile(path string) (MarketConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MarketConfig{}, err
	}
	var w marketFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return MarketConfig{}, err
	}
	return w.Market, nil
}

// MergeMarket overlays non-zero fields from override onto base.
// This is used when loading a preset and then applying overrides from the request.
func MergeMarket(base, override MarketConfig) MarketConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.ReferencePrice != 0 {
		out.ReferencePrice = override.ReferencePrice
	}
	if override.BaseDemand != 0 {
		out.BaseDemand = override.BaseDemand
	}
	if override.BaseSupply != 0 {
		out.BaseSupply = override.BaseSupply
	}
	if override.DemandElasticity != 0 {
		out.DemandElasticity = override.DemandElasticity
	}
	if override.SupplyElasticity != 0 {
		out.SupplyElasticity = override.SupplyElasticity
	}
	// Note: a zero tax can't override a preset's tax; set it after loading instead.
	if override.TaxRate != 0 {
		out.TaxRate = override.TaxRate
	}
	return out
}
