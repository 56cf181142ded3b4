// Package api assembles the HTTP surface of the simulator.
package api

import (
	"net/http"

	"market-tax-sim/internal/api/handlers"
	"market-tax-sim/internal/api/middleware"
	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/config"
	"market-tax-sim/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is what the router needs from main.
type Deps struct {
	Store       *session.Store
	Config      *config.Config
	MarketDir   string
	Recorder    session.Recorder
	Gatherer    prometheus.Gatherer // nil disables /metrics
	CORSOrigins []string

	// CreateRPS limits session creation per client IP; 0 disables it.
	CreateRPS   float64
	CreateBurst int
}

// NewRouter wires middleware, handlers and routes.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(d.CORSOrigins...))

	marketHandler := handlers.NewMarketHandler(d.MarketDir)
	sessionHandler := handlers.NewSessionHandler(d.Store, d.Config, marketHandler.Dir(), d.Recorder)
	solverHandler := handlers.NewSolverHandler()
	sweepHandler := handlers.NewSweepHandler(d.Config)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": d.Store.Len()})
	})
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	{
		api.GET("/solvers", solverHandler.ListSolvers)
		api.GET("/markets", marketHandler.ListMarkets)
		api.GET("/sweep", sweepHandler.Sweep)

		api.POST("/sessions", middleware.RateLimit(d.CreateRPS, d.CreateBurst), sessionHandler.CreateSession)
		sessions := api.Group("/sessions/:id")
		{
			sessions.GET("", sessionHandler.GetSession)
			sessions.DELETE("", sessionHandler.DeleteSession)
			sessions.PUT("/tax", sessionHandler.SetTaxRate)
			sessions.PUT("/elasticity/demand", sessionHandler.SetDemandElasticity)
			sessions.PUT("/elasticity/supply", sessionHandler.SetSupplyElasticity)
			sessions.POST("/shock", sessionHandler.ApplyShock)
			sessions.POST("/reset", sessionHandler.Reset)
			sessions.GET("/equilibrium", sessionHandler.GetEquilibrium)
			sessions.GET("/welfare", sessionHandler.GetWelfare)
			sessions.GET("/history", sessionHandler.GetHistory)
			sessions.GET("/curves", sessionHandler.GetCurves)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	})

	return router
}
