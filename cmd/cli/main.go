package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"market-tax-sim/internal/config"
	"market-tax-sim/internal/telemetry"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "cli",
		Short:         "Single-good market under a per-unit tax",
		Long:          "Solve, sweep and shock a linear supply/demand market and report its welfare split.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.SetupLogging(cmd.ErrOrStderr(), os.Getenv("API_ENV"), logLevel)
		},
	}
	root.PersistentFlags().String("config", "", "Path to YAML config (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	root.AddCommand(newSimulateCmd(), newSweepCmd(), newShockCmd(), newDemoCmd())
	return root
}

// loadConfig reads --config, or returns the defaults when it is unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("market", cfg.Market.Name).Msg("loaded config")
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
