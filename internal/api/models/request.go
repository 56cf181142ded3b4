package models

// CreateSessionRequest opens a session. Every field is optional; the
// server's configuration fills the gaps.
type CreateSessionRequest struct {
	MarketFile string       `json:"market_file,omitempty"` // preset id under MARKET_DIR, without .yaml
	Market     MarketConfig `json:"market,omitempty"`
	Solver     SolverConfig `json:"solver,omitempty"`
	Seed       int64        `json:"seed,omitempty"` // 0 = configured seed
}

// MarketConfig overrides market parameters. Zero fields are ignored.
type MarketConfig struct {
	Name             string  `json:"name,omitempty"`
	ReferencePrice   float64 `json:"reference_price,omitempty"`
	BaseDemand       float64 `json:"base_demand,omitempty"`
	BaseSupply       float64 `json:"base_supply,omitempty"`
	DemandElasticity float64 `json:"demand_elasticity,omitempty"`
	SupplyElasticity float64 `json:"supply_elasticity,omitempty"`
	TaxRate          float64 `json:"tax_rate,omitempty"`
}

// SolverConfig selects the equilibrium solver and its parameters
type SolverConfig struct {
	Name   string                 `json:"name,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// ValueRequest carries a single parameter update
type ValueRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

// CurvesRequest is the query for curve samples
type CurvesRequest struct {
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	Points   int      `form:"points"`
}

// SweepRequest is the query for a tax sweep
type SweepRequest struct {
	From             float64  `form:"from"`
	To               *float64 `form:"to" binding:"required"`
	Step             float64  `form:"step" binding:"required"`
	DemandElasticity *float64 `form:"demand_elasticity"`
	SupplyElasticity *float64 `form:"supply_elasticity"`
	Solver           string   `form:"solver"`
	Limit            int      `form:"limit,omitempty"` // default: all points, ranked
}
