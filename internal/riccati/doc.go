// Package riccati solves the algebraic Riccati equations behind LQR synthesis.
//
// [Solve] returns the stabilizing solution H of the continuous-time equation
//
//	AᵀH + HA − HBR⁻¹BᵀH + Q = 0
//
// using the matrix-sign-function iteration with Byers' determinant scaling.
// [SolveDiscrete] solves the discrete-time equation with the structure
// preserving doubling algorithm.
//
// Both solvers are bounded by Options.MaxIterations and verify the residual
// of the returned solution; they report failures through errors wrapping the
// dynamo sentinels instead of returning a degraded H:
//
//	h, err := riccati.Solve(model, riccati.DefaultOptions())
//	if errors.Is(err, dynamo.ErrConvergenceFailure) {
//	    // keep flying on the previous gain
//	}
//
// Solving is an offline operation. It allocates and must not run inside the
// control tick.
package riccati
