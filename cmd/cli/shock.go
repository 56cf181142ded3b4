package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"market-tax-sim/internal/session"
)

func newShockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shock",
		Short: "Apply seeded random shocks and record the history",
		RunE:  runShock,
	}
	cmd.Flags().Int64("seed", 0, "Shock seed (0 = configured seed, then clock)")
	cmd.Flags().Int("count", 5, "Number of shocks to apply")
	cmd.Flags().String("out", "", "Optional CSV path for the session history")
	return cmd
}

func runShock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	count, _ := cmd.Flags().GetInt("count")
	if count < 0 {
		return fmt.Errorf("--count must be >= 0, got %d", count)
	}

	sess, err := session.FromConfig(cfg, seed, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHeader(out)
	printState(out, "init", sess.State())
	for i := 0; i < count; i++ {
		res, st, err := sess.ApplyShock()
		if err != nil {
			// a rejected shock leaves the market as it was; keep going
			log.Warn().Err(err).Int("shock", i+1).Msg("shock rejected")
			continue
		}
		label := fmt.Sprintf("shock:%s x%.3f/%.3f", res.Side, res.BaseFactor, res.ElasticityFactor)
		printState(out, label, st)
	}

	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		history := sess.History()
		if err := session.WriteHistoryCSV(outPath, history); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(history), outPath)
	}
	return nil
}
