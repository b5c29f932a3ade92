package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// DefaultMaxSteps bounds every loop in this package whose length depends on
// its inputs.
const DefaultMaxSteps = 1_000_000

// DiffEq is a scalar differential equation dy/dx = f(x, y).
type DiffEq func(x, y float64) float64

// RK4Scalar integrates dy/dx = f(x, y) from (x0, y0) to x with the classic
// four stage Runge-Kutta method and returns y(x).
//
// The number of steps is floor((x-x0)/step + 1e-9), so the result lands on
// x only when the interval is a whole multiple of step. The 1e-9 differs from
// a plain floor only when the quotient sits within 1e-9 below an integer,
// which rounding produces for intervals like 0.3/0.1 = 2.9999999999999996;
// those take the whole number of steps. Global error is O(step^4).
// x == x0 returns y0 for any step.
func RK4Scalar(f DiffEq, x0, y0, x, step float64) (float64, error) {
	if x == x0 {
		return y0, nil
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return y0, fmt.Errorf("rk4: step %g: %w", step, dynamo.ErrInvalidStep)
	}
	if x < x0 {
		return y0, fmt.Errorf("rk4: target %g before start %g: %w", x, x0, dynamo.ErrInvalidStep)
	}

	n := math.Floor((x-x0)/step + 1e-9)
	if n > DefaultMaxSteps {
		return y0, fmt.Errorf("rk4: %.0f steps requested: %w", n, dynamo.ErrStepLimit)
	}

	y := y0
	xi := x0
	half := 0.5 * step
	for i := 0; i < int(n); i++ {
		k1 := step * f(xi, y)
		k2 := step * f(xi+half, y+0.5*k1)
		k3 := step * f(xi+half, y+0.5*k2)
		k4 := step * f(xi+step, y+k3)

		y += (k1 + 2*k2 + 2*k3 + k4) / 6
		xi = x0 + float64(i+1)*step
	}

	return y, nil
}

// RK4 steps a dynamo.System with the classic Runge-Kutta scheme. Stage
// buffers are reused between calls with the same state length.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, dyn.Derive(x, u, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, dyn.Derive(r.scratch, u, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, dyn.Derive(r.scratch, u, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, dyn.Derive(r.scratch, u, t+dt))

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
