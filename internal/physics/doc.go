// Package physics provides the plant models a control law is validated
// against.
//
//   - [RigidBody]: point mass with a force accumulator, 3-vectors from
//     gonum spatial/r3
//   - [LinearPlant]: ẋ = Ax + Bu built from the same matrices the gain is
//     synthesized from
//   - [Pitch]: nonlinear pitch-plane rocket with fin control
//
// LinearPlant and Pitch implement [dynamo.System]; Pitch also implements
// [dynamo.Configurable] for runtime parameter adjustment.
package physics
