package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters marks a mutation rejected before solving.
	ErrInvalidParameters = errors.New("invalid market parameters")
	// ErrNonConvergence marks an iterative search that hit its round cap.
	ErrNonConvergence = errors.New("equilibrium search did not converge")
	// ErrNegativeDeadweightLoss flags a taxed market that out-welfares its
	// untaxed counterfactual, which signals a solver or parameter defect.
	ErrNegativeDeadweightLoss = errors.New("negative deadweight loss")
)

// ParameterError names the offending field.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidParameters, e.Field, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameters }

// NonConvergenceError carries the last attempted point of a failed search.
type NonConvergenceError struct {
	Solver string
	Rounds int
	Price  float64
	Gap    float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: solver %s stopped after %d rounds at price %.4f (|demand-supply|=%.4f)",
		ErrNonConvergence, e.Solver, e.Rounds, e.Price, e.Gap)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }
