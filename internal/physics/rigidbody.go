package physics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/flightctl/internal/dynamo"
)

const StandardGravity = 9.80665

// RigidBody is a point-mass plant with a force accumulator. Forces applied
// between steps are summed and cleared by Step.
type RigidBody struct {
	Position     r3.Vec
	Velocity     r3.Vec
	Acceleration r3.Vec

	Mass            float64
	CenterOfGravity r3.Vec

	force r3.Vec
}

func NewRigidBody(mass float64) *RigidBody {
	return &RigidBody{Mass: mass}
}

func (b *RigidBody) ApplyForce(f r3.Vec) {
	b.force = r3.Add(b.force, f)
}

// ApplyGravity adds the weight of the body along −z.
func (b *RigidBody) ApplyGravity() {
	b.ApplyForce(r3.Vec{Z: -StandardGravity * b.Mass})
}

// Force returns the accumulated, not yet applied force.
func (b *RigidBody) Force() r3.Vec { return b.force }

// Step advances the body by dt under the accumulated force:
// a = F/m, p += v·dt + ½a·dt², v += a·dt. The accumulator is cleared.
func (b *RigidBody) Step(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("rigid body: dt=%g: %w", dt, dynamo.ErrInvalidStep)
	}
	if !(b.Mass > 0) {
		return fmt.Errorf("rigid body: mass=%g: %w", b.Mass, dynamo.ErrParameterBounds)
	}

	b.Acceleration = r3.Scale(1/b.Mass, b.force)
	b.Position = r3.Add(b.Position, r3.Add(r3.Scale(dt, b.Velocity), r3.Scale(0.5*dt*dt, b.Acceleration)))
	b.Velocity = r3.Add(b.Velocity, r3.Scale(dt, b.Acceleration))
	b.force = r3.Vec{}
	return nil
}

// State packs position and velocity as [px, py, pz, vx, vy, vz].
func (b *RigidBody) State() dynamo.State {
	return dynamo.State{
		b.Position.X, b.Position.Y, b.Position.Z,
		b.Velocity.X, b.Velocity.Y, b.Velocity.Z,
	}
}

func (b *RigidBody) Energy() float64 {
	return 0.5*b.Mass*r3.Norm2(b.Velocity) + b.Mass*StandardGravity*b.Position.Z
}
