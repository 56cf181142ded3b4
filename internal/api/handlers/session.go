package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/config"
	"market-tax-sim/internal/model"
	"market-tax-sim/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SessionHandler handles session lifecycle and market updates
type SessionHandler struct {
	store     *session.Store
	base      *config.Config
	marketDir string
	recorder  session.Recorder
}

// NewSessionHandler creates a new session handler. base supplies defaults
// for anything a create request leaves out.
func NewSessionHandler(store *session.Store, base *config.Config, marketDir string, rec session.Recorder) *SessionHandler {
	if base == nil {
		base = config.Default()
	}
	return &SessionHandler{store: store, base: base, marketDir: marketDir, recorder: rec}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	// An empty body means "all defaults".
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
	}

	cfg, err := h.buildConfig(req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidParameters) {
			respondModelError(c, err)
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	sess, err := session.FromConfig(cfg, req.Seed, h.recorder)
	if err != nil {
		respondModelError(c, err)
		return
	}
	id := h.store.Add(sess)
	c.JSON(http.StatusCreated, buildSessionResponse(id, sess.SolverName(), sess.State()))
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildSessionResponse(id, sess.SolverName(), sess.State()))
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !h.store.Delete(id) {
		respondNotFound(c, id)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetTaxRate handles PUT /api/v1/sessions/:id/tax
func (h *SessionHandler) SetTaxRate(c *gin.Context) {
	h.applyValue(c, (*session.Session).SetTaxRate)
}

// SetDemandElasticity handles PUT /api/v1/sessions/:id/elasticity/demand
func (h *SessionHandler) SetDemandElasticity(c *gin.Context) {
	h.applyValue(c, (*session.Session).SetDemandElasticity)
}

// SetSupplyElasticity handles PUT /api/v1/sessions/:id/elasticity/supply
func (h *SessionHandler) SetSupplyElasticity(c *gin.Context) {
	h.applyValue(c, (*session.Session).SetSupplyElasticity)
}

// ApplyShock handles POST /api/v1/sessions/:id/shock
func (h *SessionHandler) ApplyShock(c *gin.Context) {
	id, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	res, st, err := sess.ApplyShock()
	if err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ShockResponse{
		Side:             res.Side,
		BaseFactor:       res.BaseFactor,
		ElasticityFactor: res.ElasticityFactor,
		SessionResponse:  buildSessionResponse(id, sess.SolverName(), st),
	})
}

// Reset handles POST /api/v1/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	id, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	if _, err := sess.Reset(); err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildSessionResponse(id, sess.SolverName(), sess.State()))
}

// GetEquilibrium handles GET /api/v1/sessions/:id/equilibrium
func (h *SessionHandler) GetEquilibrium(c *gin.Context) {
	_, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Equilibrium())
}

// GetWelfare handles GET /api/v1/sessions/:id/welfare
func (h *SessionHandler) GetWelfare(c *gin.Context) {
	_, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Welfare())
}

// GetHistory handles GET /api/v1/sessions/:id/history
func (h *SessionHandler) GetHistory(c *gin.Context) {
	_, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		if err := session.EncodeHistoryCSV(c.Writer, sess.History()); err != nil {
			log.Error().Err(err).Msg("SessionHandler: failed to write history csv")
		}
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{History: sess.History()})
}

// GetCurves handles GET /api/v1/sessions/:id/curves
func (h *SessionHandler) GetCurves(c *gin.Context) {
	_, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.CurvesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	var r model.PriceRange
	if req.MinPrice != nil || req.MaxPrice != nil || req.Points != 0 {
		r = h.base.Sampling.ToPriceRange()
		if req.MinPrice != nil {
			r.Min = *req.MinPrice
		}
		if req.MaxPrice != nil {
			r.Max = *req.MaxPrice
		}
		if req.Points != 0 {
			r.Points = req.Points
		}
	}
	samples, err := sess.CurveSamples(r)
	if err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CurvesResponse{Samples: samples})
}

// Helper methods

func (h *SessionHandler) lookup(c *gin.Context) (string, *session.Session, bool) {
	id := c.Param("id")
	sess, ok := h.store.Get(id)
	if !ok {
		respondNotFound(c, id)
		return id, nil, false
	}
	return id, sess, true
}

func (h *SessionHandler) applyValue(c *gin.Context, apply func(*session.Session, float64) (session.State, error)) {
	id, sess, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	st, err := apply(sess, *req.Value)
	if err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildSessionResponse(id, sess.SolverName(), st))
}

func (h *SessionHandler) buildConfig(req models.CreateSessionRequest) (*config.Config, error) {
	cfg := *h.base
	if req.MarketFile != "" {
		// market_file is a preset id; files are always looked up in the market directory
		if filepath.Base(req.MarketFile) != req.MarketFile {
			return nil, fmt.Errorf("market_file must be a preset id, got %q", req.MarketFile)
		}
		loaded, err := config.LoadMarketFile(filepath.Join(h.marketDir, req.MarketFile+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("market_file %q: %w", req.MarketFile, err)
		}
		cfg.Market = config.MergeMarket(cfg.Market, loaded)
	}
	cfg.Market = config.MergeMarket(cfg.Market, config.MarketConfig{
		Name:             req.Market.Name,
		ReferencePrice:   req.Market.ReferencePrice,
		BaseDemand:       req.Market.BaseDemand,
		BaseSupply:       req.Market.BaseSupply,
		DemandElasticity: req.Market.DemandElasticity,
		SupplyElasticity: req.Market.SupplyElasticity,
		TaxRate:          req.Market.TaxRate,
	})
	if req.Solver.Name != "" {
		cfg.Solver = config.SolverConfig{Name: req.Solver.Name, Params: req.Solver.Params}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildSessionResponse(id, solverName string, st session.State) models.SessionResponse {
	return models.SessionResponse{
		ID:         id,
		Solver:     solverName,
		Parameters: st.Parameters,
		Intercepts: models.Intercepts{
			Demand: st.Parameters.DemandIntercept(),
			Supply: st.Parameters.SupplyIntercept(),
		},
		Equilibrium: st.Equilibrium,
		Welfare:     st.Welfare,
	}
}

func respondNotFound(c *gin.Context, id string) {
	respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", fmt.Sprintf("no live session %q", id), nil)
}
