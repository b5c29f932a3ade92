// Package control provides the control laws evaluated every flight tick.
//
//   - [LQR]: state feedback u = K·(desired − current) with a single-axis
//     integral trim; K is synthesized offline from a linear model
//   - [PID]: discrete single-axis loop with derivative-on-measurement
//   - [None]: zero output, for open-loop runs
//
// Every law implements [Law]. A [Selector] switches between registered laws
// by name (flight phase), and [FailSafe] adapts a Law to
// [dynamo.Controller], holding the last good output when a tick fails.
//
// # Usage
//
//	lqr := control.NewLQR(0.05)
//	if _, err := lqr.ComputeGain(a, b, q, r, 1e-9); err != nil {
//	    return err // previous gain, if any, stays in use
//	}
//	ctrl := control.NewFailSafe(lqr, target, 1)
//	u := ctrl.Compute(x, t)
//
// Laws keep per-loop state and are not safe for concurrent use.
package control
