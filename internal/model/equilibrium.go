package model

// Equilibrium is a cleared market point. Price is what consumers pay.
type Equilibrium struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	// Rounds is the number of search rounds used; zero for closed-form.
	Rounds int    `json:"rounds"`
	Solver string `json:"solver"`
	// Fallback is set when a search failed to converge and another
	// solver produced this point.
	Fallback bool `json:"fallback,omitempty"`
}

// ProducerPrice is what producers keep after the per-unit tax.
func (e Equilibrium) ProducerPrice(taxRate float64) float64 {
	return e.Price - taxRate
}

// WelfareSnapshot decomposes welfare at an equilibrium.
type WelfareSnapshot struct {
	ConsumerSurplus float64 `json:"consumer_surplus"`
	ProducerSurplus float64 `json:"producer_surplus"`
	TaxRevenue      float64 `json:"tax_revenue"`
	TotalWelfare    float64 `json:"total_welfare"`
	DeadweightLoss  float64 `json:"deadweight_loss"`
	// RawDeadweightLoss is the unclamped difference against the untaxed
	// counterfactual. Negative values are reported as DeadweightLoss 0 and
	// Inconsistent true.
	RawDeadweightLoss float64 `json:"raw_deadweight_loss"`
	Inconsistent      bool    `json:"inconsistent,omitempty"`
}

// HistoryEntry records the market after one accepted update.
type HistoryEntry struct {
	Index        int     `json:"index"`
	Event        string  `json:"event"`
	TaxRate      float64 `json:"tax_rate"`
	Price        float64 `json:"price"`
	Quantity     float64 `json:"quantity"`
	TotalWelfare float64 `json:"total_welfare"`
}
