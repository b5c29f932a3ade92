package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/flightctl/internal/dynamo"
)

const (
	DefaultDt           = 0.01
	DefaultDuration     = 10.0
	DefaultKi           = 0.0
	DefaultTrimAxis     = 1
	DefaultTrimDeadband = 1e-2
	DefaultKp           = 4.0
	DefaultKd           = 1.0
	DefaultSpeed        = 100.0
)

type Config struct {
	Model        string    `yaml:"model"`
	Integrator   string    `yaml:"integrator"`
	Controller   string    `yaml:"controller"`
	Dt           float64   `yaml:"dt"`
	Duration     float64   `yaml:"duration"`
	Seed         int64     `yaml:"seed"`
	DivergeBound float64   `yaml:"diverge_bound,omitempty"`
	InitState    []float64 `yaml:"init_state,flow"`
	Target       []float64 `yaml:"target,flow,omitempty"`

	Plant      PlantConfig       `yaml:"plant,omitempty"`
	Weights    WeightsConfig     `yaml:"weights"`
	LQR        LQRConfig         `yaml:"lqr"`
	PID        PIDConfig         `yaml:"pid"`
	Solver     SolverConfig      `yaml:"solver,omitempty"`
	Airframe   AirframeConfig    `yaml:"airframe,omitempty"`
	Phases     []PhaseConfig     `yaml:"phases,omitempty"`
	Thresholds []ThresholdConfig `yaml:"thresholds,omitempty"`
	Descent    DescentConfig     `yaml:"descent,omitempty"`
}

// PlantConfig holds the matrices of a "linear" model, row major.
type PlantConfig struct {
	A [][]float64 `yaml:"a,omitempty"`
	B [][]float64 `yaml:"b,omitempty"`
}

// WeightsConfig holds the diagonals of Q and R.
type WeightsConfig struct {
	Q []float64 `yaml:"q,flow"`
	R []float64 `yaml:"r,flow"`
}

type LQRConfig struct {
	Ki           float64 `yaml:"ki"`
	TrimAxis     int     `yaml:"trim_axis"`
	TrimChannel  int     `yaml:"trim_channel"`
	TrimDeadband float64 `yaml:"trim_deadband"`
	Discrete     bool    `yaml:"discrete,omitempty"`
	// Seed selects the discrete solver seed: zero, identity or random.
	Seed string `yaml:"seed,omitempty"`
}

type PIDConfig struct {
	Kp      float64 `yaml:"kp"`
	Ki      float64 `yaml:"ki"`
	Kd      float64 `yaml:"kd"`
	Measure int     `yaml:"measure"`
	Channel int     `yaml:"channel"`
}

type SolverConfig struct {
	Tolerance         float64 `yaml:"tolerance,omitempty"`
	MaxIterations     int     `yaml:"max_iterations,omitempty"`
	ResidualTolerance float64 `yaml:"residual_tolerance,omitempty"`
}

// AirframeConfig is the flight condition the pitch model is linearized at.
type AirframeConfig struct {
	Speed   float64 `yaml:"speed,omitempty"`
	Density float64 `yaml:"density,omitempty"`
	Time    float64 `yaml:"time,omitempty"`
}

// PhaseConfig switches to Controller at Start seconds.
type PhaseConfig struct {
	Name       string  `yaml:"name"`
	Start      float64 `yaml:"start"`
	Controller string  `yaml:"controller"`
}

type ThresholdConfig struct {
	Source string  `yaml:"source"` // control or state
	Index  int     `yaml:"index"`
	Limit  float64 `yaml:"limit"`
	Pyro   uint16  `yaml:"pyro"`
}

type DescentConfig struct {
	Altitude     float64 `yaml:"altitude,omitempty"`
	Acceleration float64 `yaml:"acceleration,omitempty"`
	Dt           float64 `yaml:"dt,omitempty"`
	MaxSteps     int     `yaml:"max_steps,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "double_integrator",
		Integrator: "rk4",
		Controller: "lqr",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		InitState:  []float64{1, 0},
		Weights: WeightsConfig{
			Q: []float64{1, 1},
			R: []float64{1},
		},
		LQR: LQRConfig{
			Ki:           DefaultKi,
			TrimAxis:     DefaultTrimAxis,
			TrimDeadband: DefaultTrimDeadband,
		},
		PID: PIDConfig{
			Kp: DefaultKp,
			Kd: DefaultKd,
		},
		Airframe: AirframeConfig{Speed: DefaultSpeed},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var (
	models      = map[string]bool{"double_integrator": true, "linear": true, "pitch": true}
	integrators = map[string]bool{"rk4": true, "euler": true, "verlet": true}
	controllers = map[string]bool{"lqr": true, "pid": true, "none": true}
	seeds       = map[string]bool{"": true, "zero": true, "identity": true, "random": true}
)

// StateDim returns the state dimension implied by the model.
func (c *Config) StateDim() int {
	switch c.Model {
	case "double_integrator":
		return 2
	case "pitch":
		return 4
	case "linear":
		return len(c.Plant.A)
	}
	return 0
}

// ControlDim returns the control dimension implied by the model.
func (c *Config) ControlDim() int {
	switch c.Model {
	case "double_integrator", "pitch":
		return 1
	case "linear":
		if len(c.Plant.B) == 0 {
			return 0
		}
		return len(c.Plant.B[0])
	}
	return 0
}

// Validate checks names, dimensions and ranges. Errors wrap
// dynamo.ErrParameterBounds or dynamo.ErrDimensionMismatch.
func (c *Config) Validate() error {
	if !models[c.Model] {
		return fmt.Errorf("config: unknown model %q: %w", c.Model, dynamo.ErrParameterBounds)
	}
	if !integrators[c.Integrator] {
		return fmt.Errorf("config: unknown integrator %q: %w", c.Integrator, dynamo.ErrParameterBounds)
	}
	if !controllers[c.Controller] {
		return fmt.Errorf("config: unknown controller %q: %w", c.Controller, dynamo.ErrParameterBounds)
	}
	if !(c.Dt > 0) || !(c.Duration > 0) {
		return fmt.Errorf("config: dt=%g duration=%g: %w", c.Dt, c.Duration, dynamo.ErrInvalidStep)
	}
	if !seeds[c.LQR.Seed] {
		return fmt.Errorf("config: unknown seed %q: %w", c.LQR.Seed, dynamo.ErrParameterBounds)
	}

	if c.Model == "linear" {
		if _, err := Dense(c.Plant.A); err != nil {
			return fmt.Errorf("config: plant.a: %w", err)
		}
		if _, err := Dense(c.Plant.B); err != nil {
			return fmt.Errorf("config: plant.b: %w", err)
		}
		if err := dynamo.CheckDim("config: plant.a columns", len(c.Plant.A[0]), len(c.Plant.A)); err != nil {
			return err
		}
		if err := dynamo.CheckDim("config: plant.b rows", len(c.Plant.B), len(c.Plant.A)); err != nil {
			return err
		}
	}
	if c.Model == "pitch" && !(c.Airframe.Speed > 0) {
		return fmt.Errorf("config: airframe speed=%g: %w", c.Airframe.Speed, dynamo.ErrParameterBounds)
	}

	s, u := c.StateDim(), c.ControlDim()
	if err := dynamo.CheckDim("config: init_state", len(c.InitState), s); err != nil {
		return err
	}
	if len(c.Target) > 0 {
		if err := dynamo.CheckDim("config: target", len(c.Target), s); err != nil {
			return err
		}
	}
	if err := dynamo.CheckDim("config: weights.q", len(c.Weights.Q), s); err != nil {
		return err
	}
	if err := dynamo.CheckDim("config: weights.r", len(c.Weights.R), u); err != nil {
		return err
	}
	if c.LQR.TrimAxis < 0 || c.LQR.TrimAxis >= s || c.LQR.TrimChannel < 0 || c.LQR.TrimChannel >= u {
		return fmt.Errorf("config: trim x[%d] -> u[%d]: %w", c.LQR.TrimAxis, c.LQR.TrimChannel, dynamo.ErrDimensionMismatch)
	}
	if c.PID.Measure < 0 || c.PID.Measure >= s || c.PID.Channel < 0 || c.PID.Channel >= u {
		return fmt.Errorf("config: pid x[%d] -> u[%d]: %w", c.PID.Measure, c.PID.Channel, dynamo.ErrDimensionMismatch)
	}

	prev := 0.0
	for _, p := range c.Phases {
		if !controllers[p.Controller] {
			return fmt.Errorf("config: phase %q: unknown controller %q: %w", p.Name, p.Controller, dynamo.ErrParameterBounds)
		}
		if p.Start < prev {
			return fmt.Errorf("config: phase %q starts before the previous phase: %w", p.Name, dynamo.ErrParameterBounds)
		}
		prev = p.Start
	}
	for _, th := range c.Thresholds {
		if th.Source != "control" && th.Source != "state" {
			return fmt.Errorf("config: threshold source %q: %w", th.Source, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = cloneFloats(c.InitState)
	out.Target = cloneFloats(c.Target)
	out.Weights.Q = cloneFloats(c.Weights.Q)
	out.Weights.R = cloneFloats(c.Weights.R)
	out.Plant.A = cloneRows(c.Plant.A)
	out.Plant.B = cloneRows(c.Plant.B)
	out.Phases = append([]PhaseConfig(nil), c.Phases...)
	out.Thresholds = append([]ThresholdConfig(nil), c.Thresholds...)
	return &out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = cloneFloats(r)
	}
	return out
}

// TargetState returns the desired state, zero when unset.
func (c *Config) TargetState() dynamo.State {
	if len(c.Target) == 0 {
		return make(dynamo.State, c.StateDim())
	}
	return dynamo.State(c.Target).Clone()
}

func (c *Config) GetInitState() dynamo.State {
	return dynamo.State(c.InitState).Clone()
}

// Dense converts rows to a matrix, rejecting empty or ragged input.
func Dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty matrix: %w", dynamo.ErrDimensionMismatch)
	}
	n := len(rows[0])
	data := make([]float64, 0, len(rows)*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), n, dynamo.ErrDimensionMismatch)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), n, data), nil
}

// Diag builds a diagonal matrix.
func Diag(v []float64) *mat.Dense {
	m := mat.NewDense(len(v), len(v), nil)
	for i, x := range v {
		m.Set(i, i, x)
	}
	return m
}
