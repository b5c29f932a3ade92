package integrators

import (
	"fmt"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Verlet returns the time for a body released at rest at height position
// under constant acceleration to reach position <= 0, using the position
// recurrence x(t+dt) = 2x(t) - x(t-dt) + a*dt^2.
//
// The loop stops after maxSteps iterations (DefaultMaxSteps when maxSteps <= 0)
// and reports ErrStepLimit, which is what happens whenever the descent never
// reaches zero (for example a == 0 with position > 0).
func Verlet(position, acceleration, dt float64, maxSteps int) (float64, error) {
	elapsed, _, err := StormerVerlet(position, acceleration, dt, maxSteps)
	return elapsed, err
}

// StormerVerlet is Verlet that also accumulates the velocity reached at the
// zero crossing. It returns the elapsed time followed by the velocity.
func StormerVerlet(position, acceleration, dt float64, maxSteps int) (float64, float64, error) {
	if !(dt > 0) {
		return 0, 0, fmt.Errorf("verlet: dt %g: %w", dt, dynamo.ErrInvalidStep)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	previous := position
	velocity := 0.0
	elapsed := 0.0
	dt2 := dt * dt

	for steps := 0; position > 0; steps++ {
		if steps == maxSteps {
			return elapsed, velocity, fmt.Errorf("verlet: position %g after %d steps: %w", position, steps, dynamo.ErrStepLimit)
		}
		elapsed += dt
		next := 2*position - previous + acceleration*dt2
		previous = position
		position = next

		// constant acceleration
		velocity += acceleration * dt
	}

	return elapsed, velocity, nil
}

// VelocityVerlet steps systems whose state is laid out as [positions...,
// velocities...] with equal halves. The acceleration is re-evaluated at the
// new positions and averaged into the velocity update.
type VelocityVerlet struct {
	scratch dynamo.State
}

func NewVelocityVerlet() *VelocityVerlet {
	return &VelocityVerlet{}
}

func (v *VelocityVerlet) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, u, t)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
	}

	for i := 0; i < half; i++ {
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := dyn.Derive(v.scratch, u, t+dt)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}

	return result
}
