package physics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/integrators"
)

// LinearPlant is ẋ = Ax + Bu.
type LinearPlant struct {
	A *mat.Dense
	B *mat.Dense

	rk4 *integrators.RK4
	dx  *mat.VecDense
	bu  *mat.VecDense
}

// NewLinearPlant checks that A is square and B has as many rows as A.
func NewLinearPlant(a, b mat.Matrix) (*LinearPlant, error) {
	ar, ac := a.Dims()
	br, _ := b.Dims()
	if err := dynamo.CheckDim("linear plant: A columns", ac, ar); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDim("linear plant: B rows", br, ar); err != nil {
		return nil, err
	}
	return &LinearPlant{
		A:   mat.DenseCopyOf(a),
		B:   mat.DenseCopyOf(b),
		rk4: integrators.NewRK4(),
		dx:  mat.NewVecDense(ar, nil),
		bu:  mat.NewVecDense(ar, nil),
	}, nil
}

func (p *LinearPlant) StateDim() int {
	r, _ := p.A.Dims()
	return r
}

func (p *LinearPlant) ControlDim() int {
	_, c := p.B.Dims()
	return c
}

func (p *LinearPlant) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	p.dx.MulVec(p.A, mat.NewVecDense(len(x), x))
	if len(u) == p.ControlDim() && len(u) > 0 {
		p.bu.MulVec(p.B, mat.NewVecDense(len(u), u))
		p.dx.AddVec(p.dx, p.bu)
	}
	out := make(dynamo.State, len(x))
	copy(out, p.dx.RawVector().Data)
	return out
}

// Propagate dead-reckons x forward one tick under a held control.
func (p *LinearPlant) Propagate(x dynamo.State, u dynamo.Control, dt float64) (dynamo.State, error) {
	if err := dynamo.CheckDim("linear plant: state", len(x), p.StateDim()); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDim("linear plant: control", len(u), p.ControlDim()); err != nil {
		return nil, err
	}
	if !(dt > 0) {
		return nil, dynamo.ErrInvalidStep
	}
	return p.rk4.Step(p, x, u, 0, dt), nil
}
