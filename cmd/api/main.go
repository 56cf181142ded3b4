package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"market-tax-sim/internal/api"
	"market-tax-sim/internal/config"
	"market-tax-sim/internal/session"
	"market-tax-sim/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	env := os.Getenv("API_ENV")
	telemetry.SetupLogging(os.Stderr, env, os.Getenv("LOG_LEVEL"))

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	ttl := time.Hour
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatal().Str("value", v).Msg("SESSION_TTL must be a positive duration")
		}
		ttl = d
	}

	cfg := config.Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", path).Str("market", cfg.Market.Name).Msg("loaded config")
	}

	createRPS, createBurst := 0.0, 10
	if v := os.Getenv("SESSION_CREATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			log.Fatal().Str("value", v).Msg("SESSION_CREATE_RPS must be a non-negative number")
		}
		createRPS = f
	}

	var origins []string
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	store := session.NewStore(ttl)
	store.OnChange = metrics.SetActiveSessions

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go store.Run(ctx, ttl/4)

	router := api.NewRouter(api.Deps{
		Store:       store,
		Config:      cfg,
		MarketDir:   os.Getenv("MARKET_DIR"),
		Recorder:    metrics,
		Gatherer:    reg,
		CORSOrigins: origins,
		CreateRPS:   createRPS,
		CreateBurst: createBurst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", srv.Addr).Dur("session_ttl", ttl).Msg("starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	log.Info().Msg("server stopped")
}
