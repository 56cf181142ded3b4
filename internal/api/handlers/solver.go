package handlers

import (
	"net/http"

	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/solver"

	"github.com/gin-gonic/gin"
)

// SolverHandler handles solver-related requests
type SolverHandler struct{}

// NewSolverHandler creates a new solver handler
func NewSolverHandler() *SolverHandler {
	return &SolverHandler{}
}

// ListSolvers handles GET /api/v1/solvers
func (h *SolverHandler) ListSolvers(c *gin.Context) {
	d := solver.DefaultIterativeParams()
	iterParams := []models.ParameterInfo{
		{
			Name:        "step",
			Type:        "float",
			Description: "Initial relative price move per round (0.01 = 1%)",
			Default:     d.Step,
		},
		{
			Name:        "max_rounds",
			Type:        "int",
			Description: "Round cap before the search gives up",
			Default:     d.MaxRounds,
		},
		{
			Name:        "tolerance",
			Type:        "float",
			Description: "Largest |demand - taxed supply| accepted as cleared",
			Default:     d.Tolerance,
		},
		{
			Name:        "damping",
			Type:        "float",
			Description: "Step multiplier applied when the search changes direction (1 = fixed step)",
			Default:     d.Damping,
		},
	}

	solvers := []models.SolverInfo{
		{
			Name:        solver.NameClosedForm,
			Description: "Exact clearing price of the linearized curves.",
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        solver.NameIterative,
			Description: "Tatonnement search: moves the price toward excess demand until the gap is within tolerance.",
			Parameters:  iterParams,
		},
		{
			Name:        solver.NameAuto,
			Description: "Iterative search that falls back to the closed form when it does not converge.",
			Parameters:  iterParams,
		},
	}

	c.JSON(http.StatusOK, gin.H{"solvers": solvers})
}
