package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/integrators"
	"github.com/san-kum/flightctl/internal/sim"
)

type decay struct{}

func (decay) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}
func (decay) StateDim() int   { return 1 }
func (decay) ControlDim() int { return 1 }

type proportional struct{}

func (proportional) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{-x[0]}
}

func TestTrackingErrorDecay(t *testing.T) {
	dt := 0.001
	iae := NewTrackingError(dynamo.State{0}, dt)

	s := sim.New(decay{}, integrators.NewRK4(), proportional{})
	s.AddMetric(iae)
	result, err := s.Run(context.Background(), dynamo.State{1}, dynamo.Config{Dt: dt, Duration: 10})
	if err != nil {
		t.Fatal(err)
	}

	// ∫₀^∞ e^{-t} dt = 1
	if math.Abs(result.Metrics["tracking_iae"]-1) > 1e-2 {
		t.Errorf("IAE = %f, want ~1", result.Metrics["tracking_iae"])
	}
}

func TestTrackingErrorAxes(t *testing.T) {
	iae := NewTrackingError(dynamo.State{1, 1}, 0.5, 1)
	iae.Observe(dynamo.State{0, 3}, nil, 0)
	if iae.Value() != 1 {
		t.Errorf("expected only axis 1 counted, got %f", iae.Value())
	}
	iae.Reset()
	if iae.Value() != 0 {
		t.Error("Reset did not clear")
	}
}

func TestControlEffort(t *testing.T) {
	effort := NewControlEffort(0.1, 2)
	effort.Observe(nil, dynamo.Control{3, -1}, 0)

	// 2·9·0.1 + 1·1·0.1
	if math.Abs(effort.Value()-1.9) > 1e-12 {
		t.Errorf("effort = %f, want 1.9", effort.Value())
	}
	if effort.Peak() != 3 {
		t.Errorf("peak = %f, want 3", effort.Peak())
	}
}

func TestQuadraticCost(t *testing.T) {
	cost := NewQuadraticCost(dynamo.State{1, 0}, []float64{2, 1}, []float64{4}, 1)
	cost.Observe(dynamo.State{0, 1}, dynamo.Control{0.5}, 0)
	if cost.Value() != 2+1+1 {
		t.Errorf("cost = %f, want 4", cost.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(dynamo.State{1, 0}, 0.5)
	s.Observe(dynamo.State{1.2, 0.1}, nil, 0)
	s.Observe(dynamo.State{2, 0}, nil, 1)
	if s.Value() != 0.5 {
		t.Errorf("stability = %f, want 0.5", s.Value())
	}
}

func TestSettling(t *testing.T) {
	s := NewSettling(0, 0, 0.1)
	samples := []float64{1, 0.05, 0.2, 0.08, 0.01}
	for i, v := range samples {
		s.Observe(dynamo.State{v}, nil, float64(i))
	}
	if s.Value() != 3 {
		t.Errorf("settling = %f, want 3", s.Value())
	}

	s.Observe(dynamo.State{1}, nil, 5)
	if s.Value() != -1 {
		t.Errorf("expected unsettled, got %f", s.Value())
	}
}
