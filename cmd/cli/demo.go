package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"market-tax-sim/internal/session"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk the default market through tax rates 0..5",
		RunE:  runDemo,
	}
}

// runDemo moves the tax slider one unit at a time, then resets.
func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := session.FromConfig(cfg, 0, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHeader(out)
	printState(out, "init", sess.State())
	for t := 1; t <= 5; t++ {
		st, err := sess.SetTaxRate(float64(t))
		if err != nil {
			return fmt.Errorf("tax %d: %w", t, err)
		}
		printState(out, fmt.Sprintf("tax_rate=%d", t), st)
	}

	if _, err := sess.Reset(); err != nil {
		return err
	}
	printState(out, "reset", sess.State())
	fmt.Fprintf(out, "history entries after reset: %d\n", len(sess.History()))
	return nil
}
