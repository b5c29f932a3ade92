package metrics

import (
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// ControlEffort integrates Σ w_i·u_i² over time and tracks the peak
// |u_i|. Weights default to one.
type ControlEffort struct {
	name    string
	dt      float64
	weights []float64
	sum     float64
	peak    float64
}

func NewControlEffort(dt float64, weights ...float64) *ControlEffort {
	return &ControlEffort{
		name:    "control_effort",
		dt:      dt,
		weights: weights,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for i, val := range u {
		w := 1.0
		if i < len(c.weights) {
			w = c.weights[i]
		}
		c.sum += w * val * val * c.dt
		c.peak = math.Max(c.peak, math.Abs(val))
	}
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

// Peak is the largest control magnitude seen.
func (c *ControlEffort) Peak() float64 { return c.peak }

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.peak = 0
}
