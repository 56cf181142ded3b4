package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"market-tax-sim/internal/session"
	"market-tax-sim/internal/solver"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Solve the configured market and print equilibrium and welfare",
		Long: `Solve the configured market once, then apply any flag overrides as
session updates. Every accepted update prints one row.`,
		RunE: runSimulate,
	}
	cmd.Flags().Float64("tax", 0, "Per-unit tax rate")
	cmd.Flags().Float64("demand-elasticity", 0, "Demand slope (< 0)")
	cmd.Flags().Float64("supply-elasticity", 0, "Supply slope (> 0)")
	cmd.Flags().String("solver", "", "Solver name (closed_form|iterative|auto)")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("solver"); name != "" {
		cfg.Solver.Name = name
	}

	sess, err := session.FromConfig(cfg, 0, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "market=%s solver=%s\n", cfg.Market.Name, sess.SolverName())
	printHeader(out)
	printState(out, "init", sess.State())

	updates := []struct {
		flag  string
		apply func(float64) (session.State, error)
	}{
		{"demand-elasticity", sess.SetDemandElasticity},
		{"supply-elasticity", sess.SetSupplyElasticity},
		{"tax", sess.SetTaxRate},
	}
	for _, u := range updates {
		if !cmd.Flags().Changed(u.flag) {
			continue
		}
		v, _ := cmd.Flags().GetFloat64(u.flag)
		st, err := u.apply(v)
		if err != nil {
			return fmt.Errorf("--%s=%g: %w", u.flag, v, err)
		}
		printState(out, u.flag, st)
	}
	return nil
}

func printHeader(out io.Writer) {
	fmt.Fprintf(out, "%-20s %8s %10s %10s %10s %10s %10s %10s %8s\n",
		"event", "tax", "price", "quantity", "cs", "ps", "revenue", "welfare", "dwl")
}

func printState(out io.Writer, event string, st session.State) {
	eq, w := st.Equilibrium, st.Welfare
	flag := ""
	if eq.Fallback {
		flag = " (fallback " + solver.NameClosedForm + ")"
	}
	if w.Inconsistent {
		flag += " (negative raw dwl)"
	}
	fmt.Fprintf(out, "%-20s %8.3f %10.3f %10.3f %10.2f %10.2f %10.2f %10.2f %8.3f%s\n",
		event, st.Parameters.TaxRate, eq.Price, eq.Quantity,
		w.ConsumerSurplus, w.ProducerSurplus, w.TaxRevenue, w.TotalWelfare, w.DeadweightLoss, flag)
}
