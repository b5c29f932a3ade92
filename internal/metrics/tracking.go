package metrics

import (
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// TrackingError is the integral of absolute error (IAE) against a fixed
// target, summed over the selected axes (all axes when none are given).
type TrackingError struct {
	name   string
	target dynamo.State
	axes   []int
	dt     float64
	sum    float64
}

func NewTrackingError(target dynamo.State, dt float64, axes ...int) *TrackingError {
	return &TrackingError{
		name:   "tracking_iae",
		target: target.Clone(),
		axes:   axes,
		dt:     dt,
	}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(e.axes) == 0 {
		for i := range x {
			if i < len(e.target) {
				e.sum += math.Abs(e.target[i]-x[i]) * e.dt
			}
		}
		return
	}
	for _, i := range e.axes {
		if i < len(x) && i < len(e.target) {
			e.sum += math.Abs(e.target[i]-x[i]) * e.dt
		}
	}
}

func (e *TrackingError) Value() float64 { return e.sum }

func (e *TrackingError) Reset() { e.sum = 0 }

// QuadraticCost integrates eᵀQe + uᵀRu with diagonal Q and R, e being
// the error against target. This is the cost an LQR gain minimizes.
type QuadraticCost struct {
	target dynamo.State
	q, r   []float64
	dt     float64
	sum    float64
}

func NewQuadraticCost(target dynamo.State, q, r []float64, dt float64) *QuadraticCost {
	return &QuadraticCost{target: target.Clone(), q: q, r: r, dt: dt}
}

func (c *QuadraticCost) Name() string { return "quadratic_cost" }

func (c *QuadraticCost) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for i := range x {
		if i < len(c.q) && i < len(c.target) {
			e := c.target[i] - x[i]
			c.sum += c.q[i] * e * e * c.dt
		}
	}
	for i := range u {
		if i < len(c.r) {
			c.sum += c.r[i] * u[i] * u[i] * c.dt
		}
	}
}

func (c *QuadraticCost) Value() float64 { return c.sum }

func (c *QuadraticCost) Reset() { c.sum = 0 }
