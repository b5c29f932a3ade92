package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flightctl/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

func exponential(x, y float64) float64 { return y }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4ScalarExponential(t *testing.T) {
	y, err := RK4Scalar(exponential, 0, 1, 1, 0.01)
	if err != nil {
		t.Fatalf("rk4 failed: %v", err)
	}
	if math.Abs(y-math.E) > 1e-8 {
		t.Errorf("expected e, got %.12f", y)
	}
}

func TestRK4ScalarFourthOrder(t *testing.T) {
	steps := []float64{0.1, 0.05, 0.025}
	errs := make([]float64, len(steps))

	for i, h := range steps {
		y, err := RK4Scalar(exponential, 0, 1, 1, h)
		if err != nil {
			t.Fatalf("step %g: %v", h, err)
		}
		errs[i] = math.Abs(y - math.E)
	}

	for i := 1; i < len(errs); i++ {
		ratio := errs[i-1] / errs[i]
		if ratio < 12 || ratio > 20 {
			t.Errorf("halving step %g reduced error by %.2fx, expected ~16x", steps[i-1], ratio)
		}
	}
}

func TestRK4ScalarDegenerateInterval(t *testing.T) {
	for _, h := range []float64{1e-6, 0.1, 10, 0, -1} {
		y, err := RK4Scalar(exponential, 2, 3.5, 2, h)
		if err != nil {
			t.Errorf("step %g: unexpected error %v", h, err)
		}
		if y != 3.5 {
			t.Errorf("step %g: expected y0 unchanged, got %f", h, y)
		}
	}
}

func TestRK4ScalarStepCount(t *testing.T) {
	one := func(x, y float64) float64 { return 1 }
	tests := []struct {
		name    string
		x, step float64
		want    float64
	}{
		{"whole multiple", 1, 0.25, 1},
		{"rounded quotient keeps last step", 0.3, 0.1, 0.3},
		{"partial step dropped", 0.25, 0.1, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := RK4Scalar(one, 0, 0, tt.x, tt.step)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(y-tt.want) > 1e-12 {
				t.Errorf("y = %.15f, want %.15f", y, tt.want)
			}
		})
	}
}

func TestRK4ScalarInvalidStep(t *testing.T) {
	tests := []struct {
		name        string
		x0, x, step float64
	}{
		{"zero step", 0, 1, 0},
		{"negative step", 0, 1, -0.1},
		{"nan step", 0, 1, math.NaN()},
		{"backwards interval", 1, 0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RK4Scalar(exponential, tt.x0, 1, tt.x, tt.step)
			if !errors.Is(err, dynamo.ErrInvalidStep) {
				t.Errorf("expected ErrInvalidStep, got %v", err)
			}
		})
	}
}

func TestRK4ScalarStepLimit(t *testing.T) {
	_, err := RK4Scalar(exponential, 0, 1, 1, 1e-9)
	if !errors.Is(err, dynamo.ErrStepLimit) {
		t.Errorf("expected ErrStepLimit, got %v", err)
	}
}
