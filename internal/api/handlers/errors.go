package handlers

import (
	"errors"
	"net/http"

	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/model"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondModelError maps simulation errors onto HTTP statuses.
func respondModelError(c *gin.Context, err error) {
	var pe *model.ParameterError
	var nc *model.NonConvergenceError
	switch {
	case errors.As(err, &pe):
		respondError(c, http.StatusBadRequest, "INVALID_PARAMETERS", err.Error(), map[string]interface{}{
			"field":  pe.Field,
			"reason": pe.Reason,
		})
	case errors.As(err, &nc):
		respondError(c, http.StatusUnprocessableEntity, "NON_CONVERGENCE", err.Error(), map[string]interface{}{
			"solver":     nc.Solver,
			"rounds":     nc.Rounds,
			"last_price": nc.Price,
			"gap":        nc.Gap,
		})
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
	}
}
