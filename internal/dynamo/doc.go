// Package dynamo provides the shared vocabulary of the flight control core.
//
// The package defines the types every other package speaks in:
//
//   - [State]: state vector supplied by the estimator each tick
//   - [Control]: actuator command vector produced by a control law
//   - [System]: plant model (dX/dt = f(X, u, t)) used for offline validation
//   - [Integrator]: numerical stepper advancing a [System]
//   - [Controller]: per-tick control law evaluated by the simulator
//
// Errors shared across packages live in errors.go and are compared with
// [errors.Is]; packages add context by wrapping them.
//
// # Thread Safety
//
// Nothing here is safe for concurrent use. One control loop owns its
// controller and integrator exclusively; independent axes use independent
// instances.
package dynamo
