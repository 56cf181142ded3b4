package solver

import "market-tax-sim/internal/model"

// ClosedForm solves the affine crossing directly:
//
//	eD*(P - aD) = eS*((P - t) - aS)
type ClosedForm struct{}

func (ClosedForm) Name() string { return NameClosedForm }

func (ClosedForm) Solve(ctx Context) (model.Equilibrium, error) {
	m := ctx.Market
	if err := checkDegenerate(m); err != nil {
		return model.Equilibrium{}, err
	}
	eD, eS := m.DemandElasticity, m.SupplyElasticity
	price := (eD*m.DemandIntercept() - eS*(m.TaxRate+m.SupplyIntercept())) / (eD - eS)

	// A heavy enough tax prices the market out; report no trade.
	quantity := m.Demand(price)
	if quantity < 0 {
		quantity = 0
	}
	return model.Equilibrium{Price: price, Quantity: quantity, Solver: NameClosedForm}, nil
}
