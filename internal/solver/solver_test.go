package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-tax-sim/internal/model"
)

func TestClosedForm_Default(t *testing.T) {
	eq, err := ClosedForm{}.Solve(Context{Market: model.DefaultParameters()})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, eq.Price, 1e-9)
	assert.InDelta(t, 100.0, eq.Quantity, 1e-9)
	assert.Equal(t, NameClosedForm, eq.Solver)
	assert.Zero(t, eq.Rounds)
}

func TestClosedForm_Taxed(t *testing.T) {
	m := model.DefaultParameters().WithTax(2)
	eq, err := ClosedForm{}.Solve(Context{Market: m})
	require.NoError(t, err)

	assert.InDelta(t, 11.0, eq.Price, 1e-9)
	assert.InDelta(t, 97.0, eq.Quantity, 1e-9)
	assert.InDelta(t, m.Demand(eq.Price), m.TaxedSupply(eq.Price, m.TaxRate), 1e-9)
	assert.InDelta(t, 9.0, eq.ProducerPrice(m.TaxRate), 1e-9)
}

func TestClosedForm_TaxedOutMarketReportsZero(t *testing.T) {
	// The wedge between intercepts is 43.33 - (-23.33) = 66.67.
	m := model.DefaultParameters().WithTax(80)
	eq, err := ClosedForm{}.Solve(Context{Market: m})
	require.NoError(t, err)
	assert.Equal(t, 0.0, eq.Quantity)
}

func TestSolvers_RejectParallelCurves(t *testing.T) {
	m := model.DefaultParameters()
	m.DemandElasticity = 2
	m.SupplyElasticity = 2

	for _, s := range []Solver{ClosedForm{}, &Iterative{Params: DefaultIterativeParams()}} {
		_, err := s.Solve(Context{Market: m, SeedPrice: 10})
		assert.ErrorIs(t, err, model.ErrInvalidParameters, s.Name())
	}
}

func TestIterative_ConvergesOnDefaultTax(t *testing.T) {
	s := &Iterative{Params: DefaultIterativeParams()}
	m := model.DefaultParameters().WithTax(2)

	eq, err := s.Solve(Context{Market: m, SeedPrice: 10})
	require.NoError(t, err)
	assert.InDelta(t, 11.0, eq.Price, 0.1)
	assert.InDelta(t, 97.0, eq.Quantity, 0.1)
	assert.Greater(t, eq.Rounds, 1)
	assert.LessOrEqual(t, eq.Rounds, 100)
	assert.Less(t, abs(m.Demand(eq.Price)-m.TaxedSupply(eq.Price, m.TaxRate)), 0.1)
}

func TestIterative_ZeroTaxStopsImmediately(t *testing.T) {
	s := &Iterative{Params: DefaultIterativeParams()}
	eq, err := s.Solve(Context{Market: model.DefaultParameters(), SeedPrice: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, eq.Rounds)
	assert.Equal(t, 10.0, eq.Price)
	assert.Equal(t, 100.0, eq.Quantity)
}

func TestIterative_BadSeedUsesReferencePrice(t *testing.T) {
	s := &Iterative{Params: DefaultIterativeParams()}
	eq, err := s.Solve(Context{Market: model.DefaultParameters(), SeedPrice: -4})
	require.NoError(t, err)
	assert.Equal(t, 10.0, eq.Price)
}

func TestIterative_ReportsNonConvergence(t *testing.T) {
	s := &Iterative{Params: IterativeParams{Step: 0.01, MaxRounds: 5, Tolerance: 0.1, Damping: 1}}
	m := model.DefaultParameters().WithTax(2)

	_, err := s.Solve(Context{Market: m, SeedPrice: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNonConvergence)

	var nc *model.NonConvergenceError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, 5, nc.Rounds)
	assert.Equal(t, NameIterative, nc.Solver)
	assert.Greater(t, nc.Gap, 0.1)
}

func TestSolvers_AgreeOnAffineInputs(t *testing.T) {
	markets := []model.MarketParameters{
		model.DefaultParameters(),
		{ReferencePrice: 10, BaseDemand: 100, BaseSupply: 100, DemandElasticity: -2.5, SupplyElasticity: 2.5},
		{ReferencePrice: 10, BaseDemand: 100, BaseSupply: 100, DemandElasticity: -2, SupplyElasticity: 1.5},
		{ReferencePrice: 10, BaseDemand: 100, BaseSupply: 100, DemandElasticity: -1, SupplyElasticity: 4},
	}
	it := &Iterative{Params: DefaultIterativeParams()}

	for _, base := range markets {
		for _, tax := range []float64{0, 0.5, 1, 2, 3, 4} {
			m := base.WithTax(tax)
			want, err := ClosedForm{}.Solve(Context{Market: m})
			require.NoError(t, err)
			got, err := it.Solve(Context{Market: m, SeedPrice: m.ReferencePrice})
			require.NoError(t, err, "eD=%v eS=%v tax=%v", m.DemandElasticity, m.SupplyElasticity, tax)

			assert.InDelta(t, want.Price, got.Price, 0.1, "price eD=%v tax=%v", m.DemandElasticity, tax)
			assert.InDelta(t, want.Quantity, got.Quantity, 0.1, "quantity eD=%v tax=%v", m.DemandElasticity, tax)
		}
	}
}

func TestFallback_UsesSecondaryOnNonConvergence(t *testing.T) {
	s := &Fallback{
		Primary:   &Iterative{Params: IterativeParams{Step: 0.01, MaxRounds: 3, Tolerance: 0.1, Damping: 1}},
		Secondary: ClosedForm{},
	}
	eq, err := s.Solve(Context{Market: model.DefaultParameters().WithTax(2), SeedPrice: 10})
	require.NoError(t, err)
	assert.True(t, eq.Fallback)
	assert.Equal(t, NameClosedForm, eq.Solver)
	assert.InDelta(t, 11.0, eq.Price, 1e-9)
}

func TestFallback_PassesThroughOtherErrors(t *testing.T) {
	s := &Fallback{Primary: &Iterative{}, Secondary: ClosedForm{}}
	m := model.DefaultParameters()
	m.DemandElasticity, m.SupplyElasticity = 1, 1

	_, err := s.Solve(Context{Market: m, SeedPrice: 10})
	assert.ErrorIs(t, err, model.ErrInvalidParameters)
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name, nil)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	s, err := New("", nil)
	require.NoError(t, err)
	assert.Equal(t, NameClosedForm, s.Name())

	s, err = New(NameIterative, map[string]any{"max_rounds": 40, "damping": 1.0})
	require.NoError(t, err)
	it := s.(*Iterative)
	assert.Equal(t, 40, it.Params.MaxRounds)
	assert.Equal(t, 1.0, it.Params.Damping)
	assert.Equal(t, 0.01, it.Params.Step)

	_, err = New("newton", nil)
	assert.Error(t, err)
}

func TestNew_RejectsOutOfRangeParams(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
	}{
		{"huge max_rounds", map[string]any{"max_rounds": 5e7}},
		{"overflowing max_rounds", map[string]any{"max_rounds": 1e12}},
		{"fractional max_rounds", map[string]any{"max_rounds": 10.5}},
		{"zero max_rounds", map[string]any{"max_rounds": 0}},
		{"zero step", map[string]any{"step": 0.0}},
		{"step of one", map[string]any{"step": 1.0}},
		{"loose tolerance", map[string]any{"tolerance": 0.5}},
		{"negative tolerance", map[string]any{"tolerance": -1e-6}},
		{"zero damping", map[string]any{"damping": 0}},
		{"amplifying damping", map[string]any{"damping": 1.5}},
		{"non numeric", map[string]any{"max_rounds": "lots"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, name := range []string{NameIterative, NameAuto} {
				s, err := New(name, tc.params)
				assert.Error(t, err, name)
				assert.Nil(t, s, name)
			}
		})
	}

	s, err := New(NameAuto, map[string]any{"max_rounds": MaxIterativeRounds, "tolerance": MaxTolerance})
	require.NoError(t, err)
	assert.Equal(t, MaxIterativeRounds, s.(*Fallback).Primary.(*Iterative).Params.MaxRounds)
}

func TestIterative_DefaultToleranceMatchesClosedForm(t *testing.T) {
	s := &Iterative{Params: DefaultIterativeParams()}
	for _, pair := range [][2]float64{{-3, 3}, {-1, 4}, {-5, 0.5}} {
		m := model.DefaultParameters()
		m.DemandElasticity, m.SupplyElasticity = pair[0], pair[1]
		m = m.WithTax(2.5)

		want, err := ClosedForm{}.Solve(Context{Market: m})
		require.NoError(t, err)
		got, err := s.Solve(Context{Market: m, SeedPrice: m.ReferencePrice})
		require.NoError(t, err)

		assert.LessOrEqual(t, got.Rounds, 100)
		assert.InDelta(t, want.Quantity, got.Quantity, 1e-5, "eD=%v eS=%v", pair[0], pair[1])
		assert.InDelta(t, want.Price, got.Price, 1e-5, "eD=%v eS=%v", pair[0], pair[1])
	}
}

func TestIterative_DirectParamsAreCapped(t *testing.T) {
	p := IterativeParams{MaxRounds: MaxIterativeRounds * 100, Tolerance: 5}.normalized()
	assert.Equal(t, MaxIterativeRounds, p.MaxRounds)
	assert.Equal(t, DefaultIterativeParams().Tolerance, p.Tolerance)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
