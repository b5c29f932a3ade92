package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for control synthesis, control evaluation and integration.
var (
	// ErrDimensionMismatch indicates matrix or vector shapes that do not agree.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrSingularCostMatrix indicates a control cost R that is not positive definite.
	ErrSingularCostMatrix = errors.New("dynamo: control cost matrix is not positive definite")

	// ErrSingularMatrix indicates a non-invertible intermediate matrix.
	ErrSingularMatrix = errors.New("dynamo: singular matrix")

	// ErrConvergenceFailure indicates an iteration cap reached without meeting tolerance.
	ErrConvergenceFailure = errors.New("dynamo: iteration did not converge")

	// ErrGainNotComputed indicates a control request before a gain was synthesized.
	ErrGainNotComputed = errors.New("dynamo: feedback gain not computed")

	// ErrInvalidStep indicates a zero or negative step where a positive one is required.
	ErrInvalidStep = errors.New("dynamo: integration step must be positive")

	// ErrStepLimit indicates a bounded integration loop ran out of steps.
	ErrStepLimit = errors.New("dynamo: step limit reached before termination condition")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the closed loop diverged past the configured bound.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// CheckDim returns ErrDimensionMismatch when got differs from want.
func CheckDim(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s: got %d, want %d: %w", what, got, want, ErrDimensionMismatch)
	}
	return nil
}
