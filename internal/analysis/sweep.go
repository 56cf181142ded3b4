package analysis

import (
	"errors"
	"fmt"
	"math"

	"market-tax-sim/internal/model"
	"market-tax-sim/internal/solver"
	"market-tax-sim/internal/welfare"
)

// SweepPoint is the market outcome at one tax rate, holding every other
// parameter fixed.
type SweepPoint struct {
	TaxRate         float64 `json:"tax_rate"`
	Price           float64 `json:"price"`
	ProducerPrice   float64 `json:"producer_price"`
	Quantity        float64 `json:"quantity"`
	ConsumerSurplus float64 `json:"consumer_surplus"`
	ProducerSurplus float64 `json:"producer_surplus"`
	TaxRevenue      float64 `json:"tax_revenue"`
	TotalWelfare    float64 `json:"total_welfare"`
	DeadweightLoss  float64 `json:"deadweight_loss"`

	// ConsumerBurden is the share of the tax carried by consumers as a
	// higher price, relative to the untaxed price. Zero at a zero tax.
	ConsumerBurden float64 `json:"consumer_burden"`
}

// SweepParams is an inclusive tax grid.
type SweepParams struct {
	From float64
	To   float64
	Step float64
}

const maxSweepPoints = 10000

func (p SweepParams) Validate() error {
	if p.From < 0 {
		return errors.New("sweep from must be >= 0")
	}
	if p.Step <= 0 {
		return errors.New("sweep step must be > 0")
	}
	if p.To < p.From {
		return errors.New("sweep to must be >= from")
	}
	if (p.To-p.From)/p.Step > maxSweepPoints {
		return fmt.Errorf("sweep grid exceeds %d points", maxSweepPoints)
	}
	return nil
}

// SweepTax solves and accounts the market at every grid rate.
func SweepTax(m model.MarketParameters, s solver.Solver, p SweepParams) ([]SweepPoint, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := m.WithTax(p.From).Validate(); err != nil {
		return nil, err
	}

	acct := welfare.New(s)
	base, err := s.Solve(solver.Context{Market: m.WithTax(0), SeedPrice: m.ReferencePrice})
	if err != nil {
		return nil, fmt.Errorf("untaxed market: %w", err)
	}

	n := int(math.Floor((p.To-p.From)/p.Step+1e-9)) + 1
	out := make([]SweepPoint, 0, n)
	seed := base.Price
	for i := 0; i < n; i++ {
		tax := p.From + float64(i)*p.Step
		mt := m.WithTax(tax)
		eq, err := s.Solve(solver.Context{Market: mt, SeedPrice: seed})
		if err != nil {
			return nil, fmt.Errorf("tax %.4f: %w", tax, err)
		}
		snap, err := acct.Account(mt, eq)
		if err != nil {
			return nil, fmt.Errorf("tax %.4f: %w", tax, err)
		}
		seed = eq.Price

		pt := SweepPoint{
			TaxRate:         tax,
			Price:           eq.Price,
			ProducerPrice:   eq.ProducerPrice(tax),
			Quantity:        eq.Quantity,
			ConsumerSurplus: snap.ConsumerSurplus,
			ProducerSurplus: snap.ProducerSurplus,
			TaxRevenue:      snap.TaxRevenue,
			TotalWelfare:    snap.TotalWelfare,
			DeadweightLoss:  snap.DeadweightLoss,
		}
		if tax > 0 {
			pt.ConsumerBurden = (eq.Price - base.Price) / tax
		}
		out = append(out, pt)
	}
	return out, nil
}
