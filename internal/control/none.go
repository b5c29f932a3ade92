package control

import "github.com/san-kum/flightctl/internal/dynamo"

// None returns a zero control vector of width Dim. Used for open-loop runs.
type None struct {
	Dim int
}

func (n None) Update(current, desired dynamo.State) (Output, error) {
	return Output{Control: make(dynamo.Control, n.Dim)}, nil
}

func (n None) Reset() {}

func (n None) Compute(x dynamo.State, t float64) dynamo.Control {
	return make(dynamo.Control, n.Dim)
}
