package airframe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/physics"
	"github.com/san-kum/flightctl/internal/riccati"
)

const (
	SeaLevelDensity = 1.225 // kg/m³
	SpeedOfSound    = 343.0 // m/s
)

// FlightCondition is the operating point a model is linearized about.
type FlightCondition struct {
	Speed   float64 // m/s
	Density float64 // kg/m³; zero means sea level
	Time    float64 // s since launch, selects motor state and mass
}

func (c FlightCondition) Mach() float64 { return c.Speed / SpeedOfSound }

func (c FlightCondition) DynamicPressure() float64 {
	rho := c.Density
	if rho == 0 {
		rho = SeaLevelDensity
	}
	return 0.5 * rho * c.Speed * c.Speed
}

// Weights are the diagonal LQR costs for the pitch-plane states
// [drift, drift rate, pitch, pitch rate] and the fin input.
type Weights struct {
	Q [4]float64
	R float64
}

func DefaultWeights() Weights {
	return Weights{Q: [4]float64{1, 0.1, 10, 1}, R: 1}
}

// Pitch evaluates the rocket at a flight condition and returns the
// pitch-plane plant.
func (r *Rocket) Pitch(cond FlightCondition) (*physics.Pitch, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !(cond.Speed > 0) {
		return nil, fmt.Errorf("linearize: speed=%g: %w", cond.Speed, dynamo.ErrParameterBounds)
	}

	mach := cond.Mach()
	qa := cond.DynamicPressure() * r.Area()
	cg := r.CGAt(cond.Time)

	fin := 0.0
	for _, s := range r.Surfaces {
		if s.Control {
			fin += surfaceSlope(s, mach) * (s.PressureCenter - cg)
		}
	}
	d := 2 * r.Radius

	return &physics.Pitch{
		Mass:         r.MassAt(cond.Time),
		Inertia:      r.InertiaAt(cond.Time),
		Thrust:       r.Motor.ThrustAt(cond.Time),
		Speed:        cond.Speed,
		NormalForce:  qa * r.NormalSlope(mach),
		StaticMargin: r.StaticMargin(mach, cond.Time),
		FinMoment:    qa * fin,
		Damping:      r.PitchDamping * qa * d * d / cond.Speed,
	}, nil
}

// Linearize builds the four-state pitch-plane model
// [drift, drift rate, pitch, pitch rate] with fin deflection as the single
// input, weighted by w.
func (r *Rocket) Linearize(cond FlightCondition, w Weights) (*riccati.Model, error) {
	plant, err := r.Pitch(cond)
	if err != nil {
		return nil, err
	}
	a, b := plant.Jacobian()

	q := mat.NewDense(4, 4, nil)
	for i, v := range w.Q {
		q.Set(i, i, v)
	}
	return riccati.NewModel(a, b, q, mat.NewDense(1, 1, []float64{w.R}))
}
