package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/config"
	"market-tax-sim/internal/session"
	"market-tax-sim/internal/telemetry"
)

const steepPreset = `market:
  name: Steep demand
  demand_elasticity: -1
  supply_elasticity: 4
`

type testServer struct {
	router *gin.Engine
	store  *session.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steep.yaml"), []byte(steepPreset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	store := session.NewStore(0)
	store.OnChange = metrics.SetActiveSessions

	cfg := config.Default()
	cfg.Shock.Seed = 7
	return &testServer{
		router: NewRouter(Deps{
			Store:     store,
			Config:    cfg,
			MarketDir: dir,
			Recorder:  metrics,
			Gatherer:  reg,
		}),
		store: store,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createSession(t *testing.T, body any) models.SessionResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.SessionResponse](t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateSessionDefaults(t *testing.T) {
	s := newTestServer(t)
	resp := s.createSession(t, nil)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "closed_form", resp.Solver)
	assert.InDelta(t, 10.0, resp.Equilibrium.Price, 1e-9)
	assert.InDelta(t, 100.0, resp.Equilibrium.Quantity, 1e-9)
	assert.InDelta(t, 0.0, resp.Welfare.DeadweightLoss, 1e-9)
	assert.InDelta(t, 130.0/3, resp.Intercepts.Demand, 1e-9)
	assert.InDelta(t, -70.0/3, resp.Intercepts.Supply, 1e-9)
	assert.Equal(t, 1, s.store.Len())
}

func TestCreateSessionFromPreset(t *testing.T) {
	s := newTestServer(t)
	resp := s.createSession(t, models.CreateSessionRequest{
		MarketFile: "steep",
		Market:     models.MarketConfig{TaxRate: 5},
	})
	assert.Equal(t, -1.0, resp.Parameters.DemandElasticity)
	assert.Equal(t, 4.0, resp.Parameters.SupplyElasticity)
	assert.Equal(t, 5.0, resp.Parameters.TaxRate)
	// 100 - (P-10) = 100 + 4(P-5-10) => P = 14
	assert.InDelta(t, 14.0, resp.Equilibrium.Price, 1e-9)
	assert.InDelta(t, 96.0, resp.Equilibrium.Quantity, 1e-9)
}

func TestCreateSessionErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
		code int
		err  string
	}{
		{"unknown preset", models.CreateSessionRequest{MarketFile: "nope"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"preset path escape", models.CreateSessionRequest{MarketFile: "../steep"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown solver", models.CreateSessionRequest{Solver: models.SolverConfig{Name: "newton"}}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"wrong sign", models.CreateSessionRequest{Market: models.MarketConfig{DemandElasticity: 2}}, http.StatusBadRequest, "INVALID_PARAMETERS"},
		{"no positive crossing", models.CreateSessionRequest{Market: models.MarketConfig{BaseDemand: -200}}, http.StatusBadRequest, "INVALID_PARAMETERS"},
		{
			"unbounded max_rounds",
			models.CreateSessionRequest{Solver: models.SolverConfig{Name: "iterative", Params: map[string]interface{}{"max_rounds": 5e7}}},
			http.StatusBadRequest, "INVALID_REQUEST",
		},
		{
			"loose tolerance",
			models.CreateSessionRequest{Solver: models.SolverConfig{Name: "auto", Params: map[string]interface{}{"tolerance": 0.5}}},
			http.StatusBadRequest, "INVALID_REQUEST",
		},
		{
			"non convergence",
			models.CreateSessionRequest{
				Market: models.MarketConfig{TaxRate: 2},
				Solver: models.SolverConfig{Name: "iterative", Params: map[string]interface{}{"max_rounds": 3, "damping": 1}},
			},
			http.StatusUnprocessableEntity, "NON_CONVERGENCE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/sessions", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.err, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
	assert.Equal(t, 0, s.store.Len())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{bad"))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionUpdates(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).ID
	base := "/api/v1/sessions/" + id

	w := s.do(t, http.MethodPut, base+"/tax", map[string]float64{"value": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SessionResponse](t, w)
	assert.InDelta(t, 11.0, resp.Equilibrium.Price, 1e-9)
	assert.InDelta(t, 97.0, resp.Equilibrium.Quantity, 1e-9)
	assert.InDelta(t, 194.0, resp.Welfare.TaxRevenue, 1e-9)
	assert.InDelta(t, 3.0, resp.Welfare.DeadweightLoss, 1e-9)

	w = s.do(t, http.MethodPut, base+"/elasticity/demand", map[string]float64{"value": -6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, -6.0, decode[models.SessionResponse](t, w).Parameters.DemandElasticity)

	w = s.do(t, http.MethodPut, base+"/elasticity/supply", map[string]float64{"value": 6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 6.0, decode[models.SessionResponse](t, w).Parameters.SupplyElasticity)

	// rejected updates leave state and history alone
	w = s.do(t, http.MethodPut, base+"/tax", map[string]float64{"value": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, "INVALID_PARAMETERS", errResp.Error.Code)
	assert.Equal(t, "tax_rate", errResp.Error.Details["field"])

	w = s.do(t, http.MethodPut, base+"/elasticity/supply", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[models.ErrorResponse](t, w).Error.Code)

	w = s.do(t, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[models.HistoryResponse](t, w).History
	require.Len(t, hist, 4)
	assert.Equal(t, []string{"init", "tax_rate", "demand_elasticity", "supply_elasticity"},
		[]string{hist[0].Event, hist[1].Event, hist[2].Event, hist[3].Event})

	w = s.do(t, http.MethodGet, base+"/equilibrium", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"solver":"closed_form"`)

	w = s.do(t, http.MethodGet, base+"/welfare", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deadweight_loss"`)
}

func TestShockAndReset(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).ID
	base := "/api/v1/sessions/" + id

	w := s.do(t, http.MethodPost, base+"/shock", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sr := decode[models.ShockResponse](t, w)
	assert.True(t, sr.Side.Valid())
	assert.GreaterOrEqual(t, sr.BaseFactor, 0.8)
	assert.LessOrEqual(t, sr.BaseFactor, 1.2)
	assert.Equal(t, id, sr.ID)

	w = s.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SessionResponse](t, w)
	assert.Equal(t, 100.0, resp.Parameters.BaseDemand)
	assert.Equal(t, 100.0, resp.Parameters.BaseSupply)

	hist := decode[models.HistoryResponse](t, s.do(t, http.MethodGet, base+"/history", nil)).History
	require.Len(t, hist, 1)
	assert.Equal(t, "reset", hist[0].Event)
}

func TestHistoryCSV(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).ID

	w := s.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/history?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "index,event,tax_rate,price,quantity,total_welfare", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,init,"))
}

func TestCurves(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).ID
	base := "/api/v1/sessions/" + id + "/curves"

	w := s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.CurvesResponse](t, w).Samples, 200)

	w = s.do(t, http.MethodGet, base+"?min_price=5&max_price=15&points=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	samples := decode[models.CurvesResponse](t, w).Samples
	require.Len(t, samples, 3)
	assert.Equal(t, 5.0, samples[0].Price)
	assert.Equal(t, 10.0, samples[1].Price)
	assert.InDelta(t, 100.0, samples[1].Demand, 1e-9)
	assert.Equal(t, 15.0, samples[2].Price)

	w = s.do(t, http.MethodGet, base+"?min_price=15&max_price=5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/v1/sessions/missing", "/api/v1/sessions/missing/welfare"} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "SESSION_NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
	}
	w := s.do(t, http.MethodPut, "/api/v1/sessions/missing/tax", map[string]float64{"value": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).ID

	w := s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.store.Len())

	w = s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := newTestServer(t)
	a := s.createSession(t, nil).ID
	b := s.createSession(t, nil).ID
	require.NotEqual(t, a, b)

	s.do(t, http.MethodPut, "/api/v1/sessions/"+a+"/tax", map[string]float64{"value": 4})
	resp := decode[models.SessionResponse](t, s.do(t, http.MethodGet, "/api/v1/sessions/"+b, nil))
	assert.Equal(t, 0.0, resp.Parameters.TaxRate)
}

func TestListSolversAndMarkets(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/solvers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	solvers := decode[struct {
		Solvers []models.SolverInfo `json:"solvers"`
	}](t, w).Solvers
	require.Len(t, solvers, 3)
	assert.Equal(t, "closed_form", solvers[0].Name)
	assert.Len(t, solvers[1].Parameters, 4)

	w = s.do(t, http.MethodGet, "/api/v1/markets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	markets := decode[struct {
		Markets []models.MarketInfo `json:"markets"`
	}](t, w).Markets
	require.Len(t, markets, 1)
	assert.Equal(t, "steep", markets[0].ID)
	assert.Equal(t, "Steep demand", markets[0].Name)
	assert.Equal(t, 10.0, markets[0].Market.ReferencePrice)
	assert.Equal(t, -1.0, markets[0].Market.DemandElasticity)
}

func TestSweep(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/sweep?from=0&to=60&step=1&limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SweepResponse](t, w)
	assert.Equal(t, 33.0, resp.RevenueMaximizingRate)
	require.Len(t, resp.Points, 3)
	assert.Equal(t, 33.0, resp.Points[0].TaxRate)
	assert.GreaterOrEqual(t, resp.Points[0].TaxRevenue, resp.Points[1].TaxRevenue)

	w = s.do(t, http.MethodGet, "/api/v1/sweep?from=0&to=10&step=5&demand_elasticity=-1&supply_elasticity=4", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, p := range decode[models.SweepResponse](t, w).Points {
		if p.TaxRate > 0 {
			assert.InDelta(t, 0.8, p.ConsumerBurden, 1e-9)
		}
	}

	w = s.do(t, http.MethodGet, "/api/v1/sweep?from=0&to=0&step=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[models.SweepResponse](t, w)
	require.Len(t, resp.Points, 1)
	assert.Equal(t, 0.0, resp.Points[0].TaxRate)
	assert.Equal(t, 0.0, resp.RevenueMaximizingRate)

	w = s.do(t, http.MethodGet, "/api/v1/sweep?from=0&to=10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/sweep?from=0&step=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/sweep?from=0&to=10&step=1&demand_elasticity=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMETERS", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).ID
	s.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/tax", map[string]float64{"value": 2})

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "market_sessions_active 1")
	assert.Contains(t, body, `market_updates_total{event="tax_rate",result="ok"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v2/anything", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}
