package control

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Law maps the current and desired state to one control evaluation.
type Law interface {
	Update(current, desired dynamo.State) (Output, error)
	Reset()
}

// LawParams carries the knobs NewLaw needs for every kind.
type LawParams struct {
	Ki       float64 // LQR integral trim gain
	Kp, Kd   float64 // PID proportional and derivative gains
	PIDKi    float64 // PID integral gain
	Measure  int     // PID state index
	Channel  int     // PID control channel
	Controls int     // control vector width
}

// NewLaw builds a law by name. LQR laws are returned without a gain.
func NewLaw(kind string, p LawParams) (Law, error) {
	switch kind {
	case "lqr":
		return NewLQR(p.Ki), nil
	case "pid":
		return NewPIDLaw(NewPID(p.Kp, p.PIDKi, p.Kd, 0), p.Measure, p.Channel, p.Controls), nil
	case "none":
		return None{Dim: p.Controls}, nil
	}
	return nil, fmt.Errorf("unknown control law: %s", kind)
}

// Selector switches between named laws, one per flight phase.
type Selector struct {
	laws   map[string]Law
	active string
}

func NewSelector() *Selector {
	return &Selector{laws: make(map[string]Law)}
}

// Register adds a law under name. The first registered law becomes active.
func (s *Selector) Register(name string, law Law) {
	s.laws[name] = law
	if s.active == "" {
		s.active = name
	}
}

// Select makes name the active law and resets it, so integrators do not
// carry state across a phase change.
func (s *Selector) Select(name string) error {
	law, ok := s.laws[name]
	if !ok {
		return fmt.Errorf("unknown phase: %s", name)
	}
	if name != s.active {
		law.Reset()
	}
	s.active = name
	return nil
}

func (s *Selector) Active() string { return s.active }

// Law returns the law registered under name, or nil.
func (s *Selector) Law(name string) Law { return s.laws[name] }

func (s *Selector) Names() []string {
	names := make([]string, 0, len(s.laws))
	for name := range s.laws {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Selector) Update(current, desired dynamo.State) (Output, error) {
	law, ok := s.laws[s.active]
	if !ok {
		return Output{}, fmt.Errorf("selector: no active law")
	}
	return law.Update(current, desired)
}

func (s *Selector) Reset() {
	if law, ok := s.laws[s.active]; ok {
		law.Reset()
	}
}

// FailSafe adapts a Law to dynamo.Controller against a fixed target.
// When an update fails it returns the last good control (zero before the
// first success) and counts the fault.
type FailSafe struct {
	Law    Law
	Target dynamo.State
	Logger *zap.Logger // nil uses zap.L()

	Faults  int
	LastErr error

	last    dynamo.Control
	faulted bool
}

func NewFailSafe(law Law, target dynamo.State, controlDim int) *FailSafe {
	return &FailSafe{
		Law:    law,
		Target: target.Clone(),
		last:   make(dynamo.Control, controlDim),
	}
}

func (f *FailSafe) Compute(x dynamo.State, t float64) dynamo.Control {
	out, err := f.Law.Update(x, f.Target)
	if err != nil {
		f.Faults++
		f.LastErr = err
		if !f.faulted {
			f.logger().Warn("control fault", zap.Float64("t", t), zap.Error(err), zap.Float64s("holding", f.last))
		}
		f.faulted = true
		return f.last.Clone()
	}
	if f.faulted {
		f.logger().Info("control recovered", zap.Float64("t", t), zap.Int("faults", f.Faults))
		f.faulted = false
	}
	f.last = out.Control.Clone()
	return out.Control
}

// Holding reports whether the last Compute returned a held output.
func (f *FailSafe) Holding() bool { return f.faulted }

func (f *FailSafe) Reset() {
	f.Law.Reset()
	for i := range f.last {
		f.last[i] = 0
	}
	f.Faults = 0
	f.LastErr = nil
	f.faulted = false
}

func (f *FailSafe) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.L()
}
