package experiment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/flightctl/internal/airframe"
	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/integrators"
	"github.com/san-kum/flightctl/internal/physics"
)

// DescentResult summarizes a fall from rest to the ground.
type DescentResult struct {
	// Time and Velocity at touchdown from the Störmer-Verlet recurrence.
	Time     float64
	Velocity float64
	// Altitude is the rigid-body altitude profile sampled every Dt.
	Altitude []float64
	// DragVelocity is the touchdown velocity of the airframe with its
	// power-off drag acting, integrated over Time.
	DragVelocity float64
}

// Descent integrates a vertical fall described by cfg. rocket may be nil,
// in which case DragVelocity equals Velocity.
func Descent(cfg config.DescentConfig, rocket *airframe.Rocket) (*DescentResult, error) {
	if !(cfg.Altitude > 0) {
		return nil, fmt.Errorf("descent altitude %g: %w", cfg.Altitude, dynamo.ErrParameterBounds)
	}
	if !(cfg.Acceleration < 0) {
		return nil, fmt.Errorf("descent acceleration %g must point down: %w", cfg.Acceleration, dynamo.ErrParameterBounds)
	}

	elapsed, vel, err := integrators.StormerVerlet(cfg.Altitude, cfg.Acceleration, cfg.Dt, cfg.MaxSteps)
	if err != nil {
		return nil, err
	}
	res := &DescentResult{Time: elapsed, Velocity: vel, DragVelocity: vel}

	body := physics.NewRigidBody(1)
	if rocket != nil {
		body.Mass = rocket.MassAt(math.Inf(1))
	}
	body.Position.Z = cfg.Altitude
	res.Altitude = append(res.Altitude, body.Position.Z)
	for i := 0; body.Position.Z > 0 && i < int(math.Ceil(elapsed/cfg.Dt)); i++ {
		body.ApplyForce(r3.Vec{Z: cfg.Acceleration * body.Mass})
		if err := body.Step(cfg.Dt); err != nil {
			return nil, err
		}
		res.Altitude = append(res.Altitude, math.Max(body.Position.Z, 0))
	}

	if rocket == nil {
		return res, nil
	}

	// dv/dt = a + k v², drag opposing the downward velocity
	mass := rocket.MassAt(math.Inf(1))
	k := 0.5 * airframe.SeaLevelDensity * rocket.Area() / mass
	dv := func(t, v float64) float64 {
		cd := rocket.DragCoefficient(math.Abs(v)/airframe.SpeedOfSound, math.Inf(1))
		return cfg.Acceleration + k*cd*v*v
	}
	res.DragVelocity, err = integrators.RK4Scalar(dv, 0, 0, elapsed, cfg.Dt)
	if err != nil {
		return nil, err
	}
	return res, nil
}
