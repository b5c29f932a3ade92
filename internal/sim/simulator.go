package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Simulator runs a closed loop tick by tick: the controller computes u from
// the current state, metrics and observers see (x, u, t), then the
// integrator advances the plant by one tick with u held.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Steps returns the number of ticks a run of cfg takes.
func Steps(cfg dynamo.Config) int {
	return int(math.Floor(cfg.Duration/cfg.Dt + 1e-9))
}

// Run integrates from x0 for cfg.Duration. A run stopped by an invalid or
// diverging state returns the trajectory so far with the cause recorded
// in Result.Errors; only configuration errors and cancellation return a
// non-nil error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := Steps(cfg)
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		newX := s.integrator.Step(s.dyn, x, u, t, dt)

		if err := check(newX, cfg); err != nil {
			result.Errors = append(result.Errors, &dynamo.SimulationError{
				Step: i, Time: t + dt, State: newX.Clone(), Wrapped: err,
			})
			break
		}

		x = newX
		t = float64(i+1) * dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u.Clone())
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func check(x dynamo.State, cfg dynamo.Config) error {
	if cfg.ValidateState && !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	if cfg.DivergeBound > 0 {
		for _, v := range x {
			if math.Abs(v) > cfg.DivergeBound {
				return dynamo.ErrUnstable
			}
		}
	}
	return nil
}

func (s *Simulator) validate(x0 dynamo.State, cfg dynamo.Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrInvalidStep)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrInvalidStep)
	}
	return dynamo.CheckDim("initial state", len(x0), s.dyn.StateDim())
}

// RunWithCallback runs like Run without recording a trajectory. callback
// sees every tick and stops the run by returning false.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, dynamo.Control, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	dt := cfg.Dt

	for i := 0; i < Steps(cfg); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * dt
		u := s.controller.Compute(x, t)
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		if !callback(x, u, t) {
			return nil
		}

		x = s.integrator.Step(s.dyn, x, u, t, dt)

		if err := check(x, cfg); err != nil {
			return &dynamo.SimulationError{Step: i, Time: t + dt, State: x.Clone(), Wrapped: err}
		}
	}

	return nil
}

// Step advances x by one tick of cfg.Dt from time t, notifying observers
// but not metrics. On an invalid or diverging result x is returned
// unchanged together with a *dynamo.SimulationError.
func (s *Simulator) Step(x dynamo.State, t float64, cfg dynamo.Config) (dynamo.State, dynamo.Control, error) {
	u := s.controller.Compute(x, t)
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}

	next := s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
	if err := check(next, cfg); err != nil {
		return x, u, &dynamo.SimulationError{Time: t + cfg.Dt, State: next.Clone(), Wrapped: err}
	}
	return next, u, nil
}
