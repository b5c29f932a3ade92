package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Pitch is the nonlinear pitch-plane motion of a rocket in powered flight.
// State: [drift, drift rate, pitch, pitch rate]. Control: [fin deflection].
//
// The angle of attack is pitch minus the flight-path deflection
// atan(drift rate / Speed). The aerodynamic normal force acts at the centre
// of pressure, StaticMargin behind the centre of mass; a negative margin is
// statically unstable.
type Pitch struct {
	Mass         float64 // kg
	Inertia      float64 // transverse moment of inertia, kg·m²
	Thrust       float64 // N
	Speed        float64 // axial airspeed, m/s
	NormalForce  float64 // N per rad of angle of attack
	StaticMargin float64 // m
	FinMoment    float64 // N·m per rad of deflection
	Damping      float64 // N·m·s per rad
	MaxFin       float64 // deflection limit, rad; zero disables
}

func NewPitch() *Pitch {
	return &Pitch{
		Mass:         25.0,
		Inertia:      8.0,
		Thrust:       1200.0,
		Speed:        120.0,
		NormalForce:  300.0,
		StaticMargin: -0.05,
		FinMoment:    60.0,
		Damping:      2.0,
		MaxFin:       0.25,
	}
}

func (p *Pitch) StateDim() int   { return 4 }
func (p *Pitch) ControlDim() int { return 1 }

func (p *Pitch) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	driftRate, theta, omega := x[1], x[2], x[3]

	fin := 0.0
	if len(u) > 0 {
		fin = u[0]
	}
	if p.MaxFin > 0 {
		fin = math.Max(-p.MaxFin, math.Min(p.MaxFin, fin))
	}

	alpha := theta - math.Atan2(driftRate, p.Speed)
	normal := p.NormalForce * math.Sin(alpha)

	lateral := (p.Thrust*math.Sin(theta) - normal*math.Cos(theta)) / p.Mass
	moment := -normal*p.StaticMargin + p.FinMoment*math.Sin(fin) - p.Damping*omega

	return dynamo.State{driftRate, lateral, omega, moment / p.Inertia}
}

// Jacobian returns A and B of the plant linearized about straight flight.
func (p *Pitch) Jacobian() (a, b *mat.Dense) {
	nv := p.NormalForce / p.Speed
	a = mat.NewDense(4, 4, []float64{
		0, 1, 0, 0,
		0, nv / p.Mass, (p.Thrust - p.NormalForce) / p.Mass, 0,
		0, 0, 0, 1,
		0, nv * p.StaticMargin / p.Inertia, -p.NormalForce * p.StaticMargin / p.Inertia, -p.Damping / p.Inertia,
	})
	b = mat.NewDense(4, 1, []float64{0, 0, 0, p.FinMoment / p.Inertia})
	return a, b
}

// Validate rejects parameters the model cannot integrate.
func (p *Pitch) Validate() error {
	if !(p.Mass > 0) || !(p.Inertia > 0) || !(p.Speed > 0) {
		return fmt.Errorf("pitch: mass=%g inertia=%g speed=%g: %w", p.Mass, p.Inertia, p.Speed, dynamo.ErrParameterBounds)
	}
	return nil
}

func (p *Pitch) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":          p.Mass,
		"inertia":       p.Inertia,
		"thrust":        p.Thrust,
		"speed":         p.Speed,
		"normal_force":  p.NormalForce,
		"static_margin": p.StaticMargin,
		"fin_moment":    p.FinMoment,
		"damping":       p.Damping,
		"max_fin":       p.MaxFin,
	}
}

func (p *Pitch) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "inertia":
		p.Inertia = value
	case "thrust":
		p.Thrust = value
	case "speed":
		p.Speed = value
	case "normal_force":
		p.NormalForce = value
	case "static_margin":
		p.StaticMargin = value
	case "fin_moment":
		p.FinMoment = value
	case "damping":
		p.Damping = value
	case "max_fin":
		p.MaxFin = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
