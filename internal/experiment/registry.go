package experiment

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/airframe"
	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/control"
	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/integrators"
	"github.com/san-kum/flightctl/internal/physics"
	"github.com/san-kum/flightctl/internal/riccati"
)

// Plant is a simulated system together with the linear model a gain is
// synthesized from.
type Plant struct {
	System dynamo.System
	A, B   *mat.Dense
	// Split marks a [positions, velocities] state layout.
	Split bool
	// Labels name the state components; ControlLimit is the actuator
	// saturation, zero when unbounded.
	Labels       []string
	ControlLimit float64
}

type Registry struct {
	models      map[string]func(*config.Config) (*Plant, error)
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func(*config.Config) (*Plant, error)),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["double_integrator"] = func(*config.Config) (*Plant, error) {
		plant, err := linearPlant(
			mat.NewDense(2, 2, []float64{0, 1, 0, 0}),
			mat.NewDense(2, 1, []float64{0, 1}),
			true,
		)
		if err != nil {
			return nil, err
		}
		plant.Labels = []string{"position", "velocity"}
		return plant, nil
	}
	r.models["linear"] = func(cfg *config.Config) (*Plant, error) {
		a, err := config.Dense(cfg.Plant.A)
		if err != nil {
			return nil, fmt.Errorf("plant.a: %w", err)
		}
		b, err := config.Dense(cfg.Plant.B)
		if err != nil {
			return nil, fmt.Errorf("plant.b: %w", err)
		}
		return linearPlant(a, b, false)
	}
	r.models["pitch"] = func(cfg *config.Config) (*Plant, error) {
		p, err := airframe.Sounding().Pitch(airframe.FlightCondition{
			Speed:   cfg.Airframe.Speed,
			Density: cfg.Airframe.Density,
			Time:    cfg.Airframe.Time,
		})
		if err != nil {
			return nil, err
		}
		p.MaxFin = physics.NewPitch().MaxFin
		a, b := p.Jacobian()
		return &Plant{
			System:       p,
			A:            a,
			B:            b,
			Labels:       []string{"drift", "drift_rate", "pitch", "pitch_rate"},
			ControlLimit: p.MaxFin,
		}, nil
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVelocityVerlet() }

	return r
}

func linearPlant(a, b *mat.Dense, split bool) (*Plant, error) {
	sys, err := physics.NewLinearPlant(a, b)
	if err != nil {
		return nil, err
	}
	return &Plant{System: sys, A: sys.A, B: sys.B, Split: split}, nil
}

func (r *Registry) GetModel(cfg *config.Config) (*Plant, error) {
	fn, ok := r.models[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", cfg.Model)
	}
	return fn(cfg)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// GetLaw builds the named control law for plant. LQR laws come with
// their gain synthesized.
func (r *Registry) GetLaw(name string, cfg *config.Config, plant *Plant) (control.Law, error) {
	_, controls := plant.B.Dims()
	law, err := control.NewLaw(name, control.LawParams{
		Ki:       cfg.LQR.Ki,
		Kp:       cfg.PID.Kp,
		Kd:       cfg.PID.Kd,
		PIDKi:    cfg.PID.Ki,
		Measure:  cfg.PID.Measure,
		Channel:  cfg.PID.Channel,
		Controls: controls,
	})
	if err != nil {
		return nil, err
	}

	lqr, ok := law.(*control.LQR)
	if !ok {
		return law, nil
	}
	if err := Synthesize(lqr, cfg, plant); err != nil {
		return nil, err
	}
	return lqr, nil
}

// Synthesize configures lqr from cfg and computes its gain for plant. A
// discrete synthesis samples the plant with a forward-Euler step of cfg.Dt.
func Synthesize(lqr *control.LQR, cfg *config.Config, plant *Plant) error {
	lqr.TrimAxis = cfg.LQR.TrimAxis
	lqr.TrimChannel = cfg.LQR.TrimChannel
	if cfg.LQR.TrimDeadband > 0 {
		lqr.TrimDeadband = cfg.LQR.TrimDeadband
	}
	lqr.Options = riccati.Options{
		Tolerance:         cfg.Solver.Tolerance,
		MaxIterations:     cfg.Solver.MaxIterations,
		ResidualTolerance: cfg.Solver.ResidualTolerance,
	}
	switch cfg.LQR.Seed {
	case "identity":
		lqr.Seed = riccati.IdentitySeed
	case "random":
		lqr.Seed = riccati.RandomSeed(rand.New(rand.NewSource(cfg.Seed)))
	default:
		lqr.Seed = riccati.ZeroSeed
	}

	q := config.Diag(cfg.Weights.Q)
	rw := config.Diag(cfg.Weights.R)

	if cfg.LQR.Discrete {
		ad, bd := Discretize(plant.A, plant.B, cfg.Dt)
		_, err := lqr.ComputeDiscreteGain(ad, bd, q, rw, cfg.Solver.Tolerance)
		return err
	}
	_, err := lqr.ComputeGain(plant.A, plant.B, q, rw, cfg.Solver.Tolerance)
	return err
}

// Discretize returns the forward-Euler sampled model (I + A·dt, B·dt).
func Discretize(a, b mat.Matrix, dt float64) (*mat.Dense, *mat.Dense) {
	s, _ := a.Dims()
	ad := mat.NewDense(s, s, nil)
	ad.Scale(dt, a)
	for i := 0; i < s; i++ {
		ad.Set(i, i, ad.At(i, i)+1)
	}
	var bd mat.Dense
	bd.Scale(dt, b)
	return ad, &bd
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
