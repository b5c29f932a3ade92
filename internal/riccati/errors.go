package riccati

import "fmt"

// SolveError reports where a solve failed. It unwraps to one of the dynamo
// sentinels.
type SolveError struct {
	Stage     string
	Iteration int
	Residual  float64
	Wrapped   error
}

func (e *SolveError) Error() string {
	if e.Residual > 0 {
		return fmt.Sprintf("riccati: %s (iteration %d, residual %.3g): %v", e.Stage, e.Iteration, e.Residual, e.Wrapped)
	}
	return fmt.Sprintf("riccati: %s (iteration %d): %v", e.Stage, e.Iteration, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
