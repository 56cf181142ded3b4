package handlers

import (
	"errors"
	"net/http"

	"market-tax-sim/internal/analysis"
	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/config"
	"market-tax-sim/internal/model"
	"market-tax-sim/internal/solver"

	"github.com/gin-gonic/gin"
)

// SweepHandler handles tax sweeps over the configured market
type SweepHandler struct {
	base *config.Config
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(base *config.Config) *SweepHandler {
	if base == nil {
		base = config.Default()
	}
	return &SweepHandler{base: base}
}

// Sweep handles GET /api/v1/sweep
func (h *SweepHandler) Sweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	m := h.base.Market.ToModelParams()
	if req.DemandElasticity != nil {
		m.DemandElasticity = *req.DemandElasticity
	}
	if req.SupplyElasticity != nil {
		m.SupplyElasticity = *req.SupplyElasticity
	}

	name := h.base.Solver.Name
	if req.Solver != "" {
		name = req.Solver
	}
	s, err := solver.New(name, h.base.Solver.Params)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SOLVER", err.Error(), nil)
		return
	}

	points, err := analysis.SweepTax(m, s, analysis.SweepParams{From: req.From, To: *req.To, Step: req.Step})
	if err != nil {
		if errors.Is(err, model.ErrInvalidParameters) || errors.Is(err, model.ErrNonConvergence) {
			respondModelError(c, err)
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	ranked := analysis.RankByRevenue(points)
	resp := models.SweepResponse{Points: ranked}
	if len(ranked) > 0 {
		resp.RevenueMaximizingRate = ranked[0].TaxRate
	}
	if req.Limit > 0 && req.Limit < len(ranked) {
		resp.Points = ranked[:req.Limit]
	}
	c.JSON(http.StatusOK, resp)
}
