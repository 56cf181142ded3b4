// Package telemetry exposes simulation metrics to Prometheus.
package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"market-tax-sim/internal/model"
)

// Metrics implements session.Recorder on top of Prometheus collectors.
type Metrics struct {
	Updates            *prometheus.CounterVec
	SolverRounds       *prometheus.HistogramVec
	NonConvergence     *prometheus.CounterVec
	NegativeDeadweight prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_updates_total",
				Help: "Market parameter updates by event and result",
			},
			[]string{"event", "result"},
		),
		SolverRounds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_solver_rounds",
				Help:    "Rounds used by the equilibrium solver (0 for closed form)",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 60, 80, 100},
			},
			[]string{"solver"},
		),
		NonConvergence: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_solver_nonconvergence_total",
				Help: "Iterative searches that hit their round cap",
			},
			[]string{"solver"},
		),
		NegativeDeadweight: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "market_negative_deadweight_loss_total",
				Help: "Welfare snapshots whose raw deadweight loss was negative",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "market_sessions_active",
				Help: "Number of live simulation sessions",
			},
		),
	}
	reg.MustRegister(m.Updates, m.SolverRounds, m.NonConvergence, m.NegativeDeadweight, m.ActiveSessions)
	return m
}

func (m *Metrics) RecordUpdate(event string, err error) {
	m.Updates.WithLabelValues(event, resultLabel(err)).Inc()
	var nc *model.NonConvergenceError
	if errors.As(err, &nc) {
		m.NonConvergence.WithLabelValues(nc.Solver).Inc()
	}
}

func (m *Metrics) RecordSolve(eq model.Equilibrium) {
	m.SolverRounds.WithLabelValues(eq.Solver).Observe(float64(eq.Rounds))
	if eq.Fallback {
		m.NonConvergence.WithLabelValues("auto").Inc()
	}
}

func (m *Metrics) RecordNegativeDeadweightLoss() {
	m.NegativeDeadweight.Inc()
}

// SetActiveSessions fits session.Store.OnChange.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, model.ErrNonConvergence):
		return "non_convergence"
	default:
		return "error"
	}
}
