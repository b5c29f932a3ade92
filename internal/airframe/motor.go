package airframe

import "fmt"

type MotorState int

const (
	Idle MotorState = iota
	Burning
	BurnedOut
)

func (s MotorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Burning:
		return "burning"
	case BurnedOut:
		return "burned out"
	}
	return fmt.Sprintf("MotorState(%d)", int(s))
}

// Motor is a solid motor with constant thrust and linear propellant burn.
type Motor struct {
	Thrust         float64 // N
	BurnTime       float64 // s
	PropellantMass float64 // kg
	Ignition       float64 // ignition time, s
}

func (m Motor) State(t float64) MotorState {
	switch {
	case t < m.Ignition:
		return Idle
	case t < m.Ignition+m.BurnTime:
		return Burning
	}
	return BurnedOut
}

func (m Motor) ThrustAt(t float64) float64 {
	if m.State(t) != Burning {
		return 0
	}
	return m.Thrust
}

// Propellant returns the propellant mass left at t.
func (m Motor) Propellant(t float64) float64 {
	switch m.State(t) {
	case Idle:
		return m.PropellantMass
	case Burning:
		return m.PropellantMass * (1 - (t-m.Ignition)/m.BurnTime)
	}
	return 0
}

func (m Motor) Impulse() float64 { return m.Thrust * m.BurnTime }
