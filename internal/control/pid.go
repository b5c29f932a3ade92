package control

import (
	"fmt"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// PID is a discrete single-axis controller. The integral accumulates
// unconditionally; call ResetIntegral on mode transitions.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Setpoint float64

	integral    float64
	previous    float64
	hasPrevious bool
}

func NewPID(kp, ki, kd, setpoint float64) *PID {
	return &PID{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		Setpoint: setpoint,
	}
}

// Calculate returns the control output for a new measurement.
//
// The derivative acts on the measurement, not the error, so a setpoint step
// produces no derivative kick. It is zero on the first call.
func (p *PID) Calculate(measurement float64) Output {
	err := p.Setpoint - measurement
	proportional := err * p.Kp
	p.integral += err * p.Ki

	derivative := 0.0
	if p.hasPrevious {
		derivative = -(measurement - p.previous) * p.Kd
	}

	p.previous = measurement
	p.hasPrevious = true

	return Output{
		P:     proportional,
		I:     p.integral,
		D:     derivative,
		Value: proportional + p.integral + derivative,
	}
}

// ResetIntegral zeroes the accumulator and leaves the previous measurement.
func (p *PID) ResetIntegral() {
	p.integral = 0
}

// Reset clears integral and derivative state.
func (p *PID) Reset() {
	p.integral = 0
	p.previous = 0
	p.hasPrevious = false
}

func (p *PID) Integral() float64 { return p.integral }

// Previous returns the last measurement, if any.
func (p *PID) Previous() (float64, bool) { return p.previous, p.hasPrevious }

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":       p.Kp,
		"ki":       p.Ki,
		"kd":       p.Kd,
		"setpoint": p.Setpoint,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "setpoint":
		p.Setpoint = value
	default:
		return fmt.Errorf("pid: unknown param %q: %w", name, dynamo.ErrParameterBounds)
	}
	return nil
}

// PIDLaw runs a PID on one state component and drives one control channel.
// The setpoint follows the desired state on that component.
type PIDLaw struct {
	PID     *PID
	Measure int
	Channel int
	Dim     int
}

func NewPIDLaw(pid *PID, measure, channel, dim int) *PIDLaw {
	return &PIDLaw{PID: pid, Measure: measure, Channel: channel, Dim: dim}
}

func (l *PIDLaw) Update(current, desired dynamo.State) (Output, error) {
	if l.Measure < 0 || l.Measure >= len(current) || len(desired) != len(current) {
		return Output{}, fmt.Errorf("pid: measure index %d on state of %d: %w", l.Measure, len(current), dynamo.ErrDimensionMismatch)
	}
	if l.Channel < 0 || l.Channel >= l.Dim {
		return Output{}, fmt.Errorf("pid: channel %d of %d: %w", l.Channel, l.Dim, dynamo.ErrDimensionMismatch)
	}

	l.PID.Setpoint = desired[l.Measure]
	out := l.PID.Calculate(current[l.Measure])
	out.Control = make(dynamo.Control, l.Dim)
	out.Control[l.Channel] = out.Value
	return out, nil
}

func (l *PIDLaw) Reset() { l.PID.Reset() }

func (l *PIDLaw) ControlDim() int { return l.Dim }
