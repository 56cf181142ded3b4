package model

import "math"

// MarketParameters defines a single-good market with affine demand and supply
// under a per-unit tax.
//
// Curves are stored in additive-shift form around a shared reference price:
//
//	demand(p) = BaseDemand + DemandElasticity*(p - ReferencePrice)
//	supply(p) = BaseSupply + SupplyElasticity*(p - ReferencePrice)
//
// Price-axis intercepts are derived from these fields on every call, so they
// always agree with the current elasticities.
type MarketParameters struct {
	ReferencePrice   float64 `json:"reference_price"`
	BaseDemand       float64 `json:"base_demand"`
	BaseSupply       float64 `json:"base_supply"`
	DemandElasticity float64 `json:"demand_elasticity"`
	SupplyElasticity float64 `json:"supply_elasticity"`
	TaxRate          float64 `json:"tax_rate"`
}

// DefaultParameters is the textbook market: both curves pass through
// (10, 100) and, untaxed, clear there.
func DefaultParameters() MarketParameters {
	return MarketParameters{
		ReferencePrice:   10,
		BaseDemand:       100,
		BaseSupply:       100,
		DemandElasticity: -3,
		SupplyElasticity: 3,
		TaxRate:          0,
	}
}

// FromIntercepts builds parameters from the intercept form
// demand(p) = eD*(p - demandIntercept), supply(p) = eS*(p - supplyIntercept).
func FromIntercepts(demandIntercept, supplyIntercept, demandElasticity, supplyElasticity, referencePrice float64) MarketParameters {
	return MarketParameters{
		ReferencePrice:   referencePrice,
		BaseDemand:       demandElasticity * (referencePrice - demandIntercept),
		BaseSupply:       supplyElasticity * (referencePrice - supplyIntercept),
		DemandElasticity: demandElasticity,
		SupplyElasticity: supplyElasticity,
	}
}

// Validate rejects parameter sets whose curves cannot cross at a unique point.
func (m MarketParameters) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"reference_price", m.ReferencePrice},
		{"base_demand", m.BaseDemand},
		{"base_supply", m.BaseSupply},
		{"demand_elasticity", m.DemandElasticity},
		{"supply_elasticity", m.SupplyElasticity},
		{"tax_rate", m.TaxRate},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ParameterError{Field: f.name, Reason: "must be a finite number"}
		}
	}
	if m.DemandElasticity >= 0 {
		return &ParameterError{Field: "demand_elasticity", Reason: "must be < 0"}
	}
	if m.SupplyElasticity <= 0 {
		return &ParameterError{Field: "supply_elasticity", Reason: "must be > 0"}
	}
	if m.DemandElasticity == m.SupplyElasticity {
		return &ParameterError{Field: "supply_elasticity", Reason: "parallel curves have no unique crossing"}
	}
	dI, sI := m.DemandIntercept(), m.SupplyIntercept()
	if math.IsNaN(dI) || math.IsInf(dI, 0) {
		return &ParameterError{Field: "base_demand", Reason: "demand intercept is not finite"}
	}
	if math.IsNaN(sI) || math.IsInf(sI, 0) {
		return &ParameterError{Field: "base_supply", Reason: "supply intercept is not finite"}
	}
	// The untaxed curves must cross at a positive quantity.
	if !(dI > sI) {
		return &ParameterError{Field: "base_demand", Reason: "curves must cross at a positive quantity"}
	}
	if m.TaxRate < 0 {
		return &ParameterError{Field: "tax_rate", Reason: "must be >= 0"}
	}
	if m.ReferencePrice <= 0 {
		return &ParameterError{Field: "reference_price", Reason: "must be > 0"}
	}
	return nil
}

// Demand returns quantity demanded at the consumer price.
func (m MarketParameters) Demand(price float64) float64 {
	return m.BaseDemand + m.DemandElasticity*(price-m.ReferencePrice)
}

// Supply returns quantity supplied when producers receive price.
func (m MarketParameters) Supply(price float64) float64 {
	return m.BaseSupply + m.SupplyElasticity*(price-m.ReferencePrice)
}

// TaxedSupply is supply seen from the consumer side of the wedge:
// producers keep consumerPrice - taxRate.
func (m MarketParameters) TaxedSupply(consumerPrice, taxRate float64) float64 {
	return m.Supply(consumerPrice - taxRate)
}

// DemandIntercept is the choke price, where demand reaches zero.
func (m MarketParameters) DemandIntercept() float64 {
	return m.ReferencePrice - m.BaseDemand/m.DemandElasticity
}

// SupplyIntercept is the price at which supply reaches zero. It may be
// negative when producers supply a positive quantity at a zero price.
func (m MarketParameters) SupplyIntercept() float64 {
	return m.ReferencePrice - m.BaseSupply/m.SupplyElasticity
}

// WithTax returns a copy with the tax rate replaced.
func (m MarketParameters) WithTax(taxRate float64) MarketParameters {
	m.TaxRate = taxRate
	return m
}

// CurveSample is one plotted point of the curves.
type CurveSample struct {
	Price       float64 `json:"price"`
	Demand      float64 `json:"demand"`
	Supply      float64 `json:"supply"`
	TaxedSupply float64 `json:"taxed_supply"`
}

// PriceRange is an evenly spaced closed price grid.
type PriceRange struct {
	Min    float64 `json:"min_price"`
	Max    float64 `json:"max_price"`
	Points int     `json:"points"`
}

// DefaultPriceRange matches the classic 0..25 chart.
func DefaultPriceRange() PriceRange {
	return PriceRange{Min: 0, Max: 25, Points: 200}
}

func (r PriceRange) Validate() error {
	if r.Points < 2 {
		return &ParameterError{Field: "points", Reason: "must be >= 2"}
	}
	if !(r.Max > r.Min) {
		return &ParameterError{Field: "max_price", Reason: "must be > min_price"}
	}
	return nil
}

// Samples evaluates all curves on the grid.
func (m MarketParameters) Samples(r PriceRange) ([]CurveSample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := make([]CurveSample, r.Points)
	dp := (r.Max - r.Min) / float64(r.Points-1)
	for i := range out {
		p := r.Min + float64(i)*dp
		if i == r.Points-1 {
			p = r.Max
		}
		out[i] = CurveSample{
			Price:       p,
			Demand:      m.Demand(p),
			Supply:      m.Supply(p),
			TaxedSupply: m.TaxedSupply(p, m.TaxRate),
		}
	}
	return out, nil
}
