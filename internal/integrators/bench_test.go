package integrators

import (
	"testing"

	"github.com/san-kum/flightctl/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int   { return 4 }
func (b *benchDynamics) ControlDim() int { return 1 }
func (b *benchDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], 2*x[2] - 0.1*x[1], x[3], -x[2] + u[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{0.0, 0.0, 0.1, 0.0}
	u := dynamo.Control{0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{0.0, 0.0, 0.1, 0.0}
	u := dynamo.Control{0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.01)
	}
}

func BenchmarkVelocityVerlet(b *testing.B) {
	integrator := NewVelocityVerlet()
	dyn := &benchDynamics{}
	x := dynamo.State{0.0, 0.0, 0.1, 0.0}
	u := dynamo.Control{0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.01)
	}
}

func BenchmarkRK4Scalar(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = RK4Scalar(exponential, 0, 1, 1, 0.01)
	}
}
