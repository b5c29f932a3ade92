package command

import (
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

type Source int

const (
	FromControl Source = iota
	FromState
)

// Threshold sends Command once when |value| reaches Limit, where value is
// control channel or state component Index. It stays latched until Reset.
// Threshold implements dynamo.Observer.
type Threshold struct {
	Source  Source
	Index   int
	Limit   float64
	Command Command
	Sink    Sink

	// Err keeps the first send failure.
	Err error

	fired bool
	at    float64
}

// NewPyroThreshold fires pyro channel pyro when control channel ch
// saturates at limit.
func NewPyroThreshold(ch int, limit float64, pyro uint16, sink Sink) *Threshold {
	return &Threshold{Source: FromControl, Index: ch, Limit: limit, Command: FirePyro(pyro), Sink: sink}
}

func (th *Threshold) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if th.fired {
		return
	}
	var v []float64 = u
	if th.Source == FromState {
		v = x
	}
	if th.Index < 0 || th.Index >= len(v) {
		return
	}
	if math.Abs(v[th.Index]) < th.Limit {
		return
	}
	th.fired = true
	th.at = t
	if err := th.Sink.Send(th.Command); err != nil && th.Err == nil {
		th.Err = err
	}
}

// Fired reports whether the command went out and at what time.
func (th *Threshold) Fired() (bool, float64) { return th.fired, th.at }

func (th *Threshold) Reset() {
	th.fired = false
	th.at = 0
	th.Err = nil
}
