package metrics

import (
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Stability is the fraction of ticks on which every state component
// stays within threshold of the target.
type Stability struct {
	name       string
	target     dynamo.State
	threshold  float64
	violations int
	samples    int
}

func NewStability(target dynamo.State, threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		target:    target.Clone(),
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	for i, val := range x {
		ref := 0.0
		if i < len(s.target) {
			ref = s.target[i]
		}
		if math.Abs(val-ref) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Settling reports the time after which axis stays within band of the
// target for the rest of the run. It is -1 while the axis is outside the
// band.
type Settling struct {
	axis   int
	target float64
	band   float64
	since  float64
	inside bool
}

func NewSettling(axis int, target, band float64) *Settling {
	return &Settling{axis: axis, target: target, band: band, since: -1}
}

func (s *Settling) Name() string { return "settling_time" }

func (s *Settling) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if s.axis >= len(x) {
		return
	}
	in := math.Abs(x[s.axis]-s.target) <= s.band
	switch {
	case in && !s.inside:
		s.since = t
	case !in:
		s.since = -1
	}
	s.inside = in
}

func (s *Settling) Value() float64 { return s.since }

func (s *Settling) Reset() {
	s.since = -1
	s.inside = false
}
