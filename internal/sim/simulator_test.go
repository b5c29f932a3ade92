package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/san-kum/flightctl/internal/dynamo"
)

type testDynamics struct{}

func (t *testDynamics) Derive(x dynamo.State, u dynamo.Control, time float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (t *testDynamics) StateDim() int   { return 1 }
func (t *testDynamics) ControlDim() int { return 0 }

type growth struct{}

func (growth) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[0]}
}
func (growth) StateDim() int   { return 1 }
func (growth) ControlDim() int { return 0 }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, time float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, time)
	return dynamo.State{x[0] + dt*dx[0]}
}

type testController struct{}

func (t *testController) Compute(x dynamo.State, time float64) dynamo.Control {
	return dynamo.Control{}
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	cfg := dynamo.Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.Times[10] != 1.0 {
		t.Errorf("expected final time 1.0, got %v", result.Times[10])
	}

	finalState := result.States[len(result.States)-1][0]
	expected := 1.0 * math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	tests := []struct {
		name string
		x0   dynamo.State
		cfg  dynamo.Config
		want error
	}{
		{"zero dt", dynamo.State{1}, dynamo.Config{Dt: 0, Duration: 1.0}, dynamo.ErrInvalidStep},
		{"negative dt", dynamo.State{1}, dynamo.Config{Dt: -0.1, Duration: 1.0}, dynamo.ErrInvalidStep},
		{"zero duration", dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 0}, dynamo.ErrInvalidStep},
		{"wrong state", dynamo.State{1, 2}, dynamo.Config{Dt: 0.1, Duration: 1}, dynamo.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.x0, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x dynamo.State, u dynamo.Control, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, dynamo.Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSimulatorDivergeBound(t *testing.T) {
	sim := New(growth{}, &testIntegrator{}, &testController{})

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, dynamo.Config{Dt: 0.1, Duration: 100, DivergeBound: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], dynamo.ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", result.Errors)
	}
	if result.StepsTaken >= 1000 {
		t.Error("run was not stopped")
	}
	last := result.States[len(result.States)-1][0]
	if last > 10 {
		t.Errorf("recorded a state past the bound: %f", last)
	}
}

func TestSimulatorCancel(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	calls := 0
	err := sim.RunWithCallback(context.Background(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1}, func(x dynamo.State, u dynamo.Control, t float64) bool {
		calls++
		return calls < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestEnsemble(t *testing.T) {
	build := func(i int) (Run, error) {
		if i == 2 {
			return Run{}, errors.New("no plant")
		}
		return Run{
			Sim: New(&testDynamics{}, &testIntegrator{}, &testController{}),
			X0:  dynamo.State{float64(i)},
		}, nil
	}

	results, errs := NewEnsemble(build, 4, 2).Run(context.Background(), dynamo.Config{Dt: 0.1, Duration: 1})
	for i := range results {
		if i == 2 {
			if errs[i] == nil || results[i] != nil {
				t.Errorf("run 2 should fail")
			}
			continue
		}
		if errs[i] != nil {
			t.Fatalf("run %d: %v", i, errs[i])
		}
		if results[i].States[0][0] != float64(i) {
			t.Errorf("run %d started from %v", i, results[i].States[0])
		}
	}
}

func TestSchedule(t *testing.T) {
	var selected []string
	s := &Schedule{
		Phases: []Phase{{"rail", 0}, {"boost", 0.25}, {"coast", 0.5}},
		Select: func(name string) error {
			selected = append(selected, name)
			return nil
		},
		Logger: zap.NewNop(),
	}

	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	sim.AddObserver(s)
	if _, err := sim.Run(context.Background(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 0.4}); err != nil {
		t.Fatal(err)
	}

	if len(selected) != 2 || selected[0] != "rail" || selected[1] != "boost" {
		t.Errorf("unexpected phase sequence %v", selected)
	}
	if s.Current() != "boost" {
		t.Errorf("current phase %q", s.Current())
	}
}

func TestSimulatorStep(t *testing.T) {
	s := New(&testDynamics{}, &testIntegrator{}, &testController{})
	next, _, err := s.Step(dynamo.State{1}, 0, dynamo.Config{Dt: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(next[0]-0.9) > 1e-12 {
		t.Errorf("got %v, want 0.9", next[0])
	}

	g := New(growth{}, &testIntegrator{}, &testController{})
	x := dynamo.State{1}
	_, _, err = g.Step(x, 0, dynamo.Config{Dt: 1, DivergeBound: 1.5})
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("expected ErrUnstable, got %v", err)
	}
}
