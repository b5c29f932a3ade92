package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/command"
	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/control"
	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/metrics"
	"github.com/san-kum/flightctl/internal/sim"
)

// Experiment is one configured closed loop: plant, integrator, control
// law behind a fail-safe, metrics, phase schedule and command thresholds.
type Experiment struct {
	cfg       *config.Config
	plant     *Plant
	simulator *sim.Simulator
	selector  *control.Selector
	failsafe  *control.FailSafe
	schedule  *sim.Schedule
	effort    *metrics.ControlEffort

	thresholds []*command.Threshold
}

// Options carries the outbound parts of an experiment. Sink receives
// threshold commands and nil logs them. Logger receives fault, phase and
// command entries and nil uses zap.L().
type Options struct {
	Sink   command.Sink
	Logger *zap.Logger
}

func New(cfg *config.Config, opts Options) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := NewRegistry()

	plant, err := reg.GetModel(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Integrator == "verlet" && !plant.Split {
		return nil, fmt.Errorf("verlet needs a [positions, velocities] state, model %s interleaves them: %w", cfg.Model, dynamo.ErrParameterBounds)
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	e := &Experiment{cfg: cfg, plant: plant, selector: control.NewSelector()}

	phases := cfg.Phases
	if len(phases) == 0 {
		phases = []config.PhaseConfig{{Name: cfg.Controller, Controller: cfg.Controller}}
	}
	for _, p := range phases {
		law, err := reg.GetLaw(p.Controller, cfg, plant)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", p.Name, err)
		}
		e.selector.Register(p.Name, law)
	}

	_, controls := plant.B.Dims()
	target := cfg.TargetState()
	e.failsafe = control.NewFailSafe(e.selector, target, controls)
	e.failsafe.Logger = opts.Logger

	e.simulator = sim.New(plant.System, integ, e.failsafe)

	e.effort = metrics.NewControlEffort(cfg.Dt, cfg.Weights.R...)
	e.simulator.AddMetric(metrics.NewTrackingError(target, cfg.Dt))
	e.simulator.AddMetric(e.effort)
	e.simulator.AddMetric(metrics.NewQuadraticCost(target, cfg.Weights.Q, cfg.Weights.R, cfg.Dt))
	e.simulator.AddMetric(metrics.NewStability(target, 0.05))
	e.simulator.AddMetric(metrics.NewSettling(0, target[0], 0.02))

	if len(cfg.Phases) > 0 {
		sched := &sim.Schedule{Select: e.selector.Select, Logger: opts.Logger}
		for _, p := range cfg.Phases {
			sched.Phases = append(sched.Phases, sim.Phase{Name: p.Name, Start: p.Start})
		}
		e.schedule = sched
		e.simulator.AddObserver(sched)
	}

	sink := opts.Sink
	if sink == nil {
		sink = command.LogSink{Logger: opts.Logger}
	}
	for _, th := range cfg.Thresholds {
		src := command.FromControl
		if th.Source == "state" {
			src = command.FromState
		}
		t := &command.Threshold{Source: src, Index: th.Index, Limit: th.Limit, Command: command.FirePyro(th.Pyro), Sink: sink}
		e.thresholds = append(e.thresholds, t)
		e.simulator.AddObserver(t)
	}

	return e, nil
}

// Reset returns the loop to its launch condition: first phase active,
// fail-safe cleared, thresholds re-armed.
func (e *Experiment) Reset() error {
	if err := e.selector.Select(e.phaseNames()[0]); err != nil {
		return err
	}
	e.failsafe.Reset()
	if e.schedule != nil {
		e.schedule.Reset()
	}
	for _, th := range e.thresholds {
		th.Reset()
	}
	return nil
}

// Step advances x by one tick from t. It is the incremental form of Run
// and expects Reset to have been called before the first tick.
func (e *Experiment) Step(x dynamo.State, t float64) (dynamo.State, dynamo.Control, error) {
	return e.simulator.Step(x, t, e.SimConfig())
}

// Phase names the active control law.
func (e *Experiment) Phase() string {
	return e.selector.Active()
}

// Fired reports the thresholds that have latched, by pyro channel.
func (e *Experiment) Fired() []uint16 {
	var out []uint16
	for _, th := range e.thresholds {
		if ok, _ := th.Fired(); ok {
			out = append(out, th.Command.Channel)
		}
	}
	return out
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if err := e.Reset(); err != nil {
		return nil, err
	}

	result, err := e.simulator.Run(ctx, e.cfg.GetInitState(), e.SimConfig())
	if err != nil {
		return result, err
	}
	result.Metrics["control_peak"] = e.effort.Peak()
	result.Metrics["faults"] = float64(e.failsafe.Faults)
	return result, nil
}

func (e *Experiment) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		ValidateState: true,
		DivergeBound:  e.cfg.DivergeBound,
	}
}

// Gain returns the gain of the first LQR phase, or nil.
func (e *Experiment) Gain() *mat.Dense {
	if l := e.LQR(); l != nil {
		return l.Gain()
	}
	return nil
}

// LQR returns the first LQR law registered, or nil.
func (e *Experiment) LQR() *control.LQR {
	for _, name := range e.phaseNames() {
		if l, ok := e.selector.Law(name).(*control.LQR); ok {
			return l
		}
	}
	return nil
}

func (e *Experiment) phaseNames() []string {
	if len(e.cfg.Phases) == 0 {
		return []string{e.cfg.Controller}
	}
	names := make([]string, len(e.cfg.Phases))
	for i, p := range e.cfg.Phases {
		names[i] = p.Name
	}
	return names
}

func (e *Experiment) Plant() *Plant { return e.plant }

func (e *Experiment) Config() *config.Config { return e.cfg }

// Controller returns the fail-safe controller driving the plant.
func (e *Experiment) Controller() *control.FailSafe { return e.failsafe }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
