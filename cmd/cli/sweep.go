package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"market-tax-sim/internal/analysis"
	"market-tax-sim/internal/solver"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate a grid of tax rates and rank them by revenue",
		RunE:  runSweep,
	}
	cmd.Flags().Float64("from", 0, "First tax rate")
	cmd.Flags().Float64("to", 10, "Last tax rate (inclusive)")
	cmd.Flags().Float64("step", 1, "Grid spacing")
	cmd.Flags().Int("top", 10, "Rows to print (0 = all)")
	cmd.Flags().String("out", "", "Optional CSV path for the full grid in tax order")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := solver.New(cfg.Solver.Name, cfg.Solver.Params)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetFloat64("from")
	to, _ := cmd.Flags().GetFloat64("to")
	step, _ := cmd.Flags().GetFloat64("step")
	points, err := analysis.SweepTax(cfg.Market.ToModelParams(), s, analysis.SweepParams{From: from, To: to, Step: step})
	if err != nil {
		return err
	}

	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := analysis.WriteSweepCSV(outPath, points); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(points), outPath)
	}

	ranked := analysis.RankByRevenue(points)
	if top, _ := cmd.Flags().GetInt("top"); top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %8s %10s %10s %10s %10s %8s %8s\n",
		"rank", "tax", "price", "quantity", "revenue", "welfare", "dwl", "burden")
	for i, p := range ranked {
		fmt.Fprintf(out, "%-4d %8.3f %10.3f %10.3f %10.2f %10.2f %8.3f %8.3f\n",
			i+1, p.TaxRate, p.Price, p.Quantity, p.TaxRevenue, p.TotalWelfare, p.DeadweightLoss, p.ConsumerBurden)
	}
	return nil
}
