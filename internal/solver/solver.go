package solver

import (
	"fmt"
	"math"

	"market-tax-sim/internal/model"
)

// Context is everything a solver may look at.
type Context struct {
	Market model.MarketParameters
	// SeedPrice is where searches start, usually the previous equilibrium.
	SeedPrice float64
}

// Solver finds the price where demand meets after-tax supply.
type Solver interface {
	Name() string
	Solve(ctx Context) (model.Equilibrium, error)
}

const (
	NameClosedForm = "closed_form"
	NameIterative  = "iterative"
	NameAuto       = "auto"
)

// New builds a solver by name. Unknown params keys are ignored; known ones
// are range checked.
func New(name string, params map[string]any) (Solver, error) {
	switch name {
	case "", NameClosedForm:
		return ClosedForm{}, nil
	case NameIterative, NameAuto:
		p, err := IterativeParamsFrom(params)
		if err != nil {
			return nil, fmt.Errorf("%s solver: %w", name, err)
		}
		if name == NameIterative {
			return &Iterative{Params: p}, nil
		}
		return &Fallback{
			Primary:   &Iterative{Params: p},
			Secondary: ClosedForm{},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported solver: %q", name)
	}
}

// Names lists the registered solvers in display order.
func Names() []string {
	return []string{NameClosedForm, NameIterative, NameAuto}
}

func checkDegenerate(m model.MarketParameters) error {
	if m.DemandElasticity == m.SupplyElasticity {
		return &model.ParameterError{Field: "supply_elasticity", Reason: "parallel curves have no unique crossing"}
	}
	return nil
}

// numOption reads a numeric option, accepting the types YAML and JSON
// decode to.
func numOption(m map[string]any, key string, def float64) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%s must be a finite number", key)
	}
	return x, nil
}
