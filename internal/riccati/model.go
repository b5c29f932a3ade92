package riccati

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Model is a linear state-space model with quadratic costs: ẋ = Ax + Bu
// (or x⁺ = Ax + Bu for the discrete solver) weighted by state cost Q and
// control cost R. A Model is immutable once built.
type Model struct {
	a, b, q, r *mat.Dense
	s, c       int
}

// NewModel validates the shapes of A (S×S), B (S×C), Q (S×S) and R (C×C) and
// copies the matrices.
func NewModel(a, b, q, r mat.Matrix) (*Model, error) {
	if a == nil || b == nil || q == nil || r == nil {
		return nil, fmt.Errorf("riccati: nil matrix: %w", dynamo.ErrDimensionMismatch)
	}

	ar, ac := a.Dims()
	if ar != ac {
		return nil, fmt.Errorf("riccati: A is %dx%d, not square: %w", ar, ac, dynamo.ErrDimensionMismatch)
	}
	br, bc := b.Dims()
	if br != ar {
		return nil, fmt.Errorf("riccati: A has %d rows, B has %d: %w", ar, br, dynamo.ErrDimensionMismatch)
	}
	if qr, qc := q.Dims(); qr != ar || qc != ar {
		return nil, fmt.Errorf("riccati: Q is %dx%d, want %dx%d: %w", qr, qc, ar, ar, dynamo.ErrDimensionMismatch)
	}
	if rr, rc := r.Dims(); rr != bc || rc != bc {
		return nil, fmt.Errorf("riccati: R is %dx%d, want %dx%d: %w", rr, rc, bc, bc, dynamo.ErrDimensionMismatch)
	}

	return &Model{
		a: mat.DenseCopyOf(a),
		b: mat.DenseCopyOf(b),
		q: mat.DenseCopyOf(q),
		r: mat.DenseCopyOf(r),
		s: ar,
		c: bc,
	}, nil
}

// Dims returns the state and control dimensions.
func (m *Model) Dims() (s, c int) { return m.s, m.c }

func (m *Model) A() mat.Matrix { return m.a }
func (m *Model) B() mat.Matrix { return m.b }
func (m *Model) Q() mat.Matrix { return m.q }
func (m *Model) R() mat.Matrix { return m.r }

// costFactor factors R. R must be symmetric positive definite.
func (m *Model) costFactor() (*mat.Cholesky, error) {
	if !mat.EqualApprox(m.r, m.r.T(), 1e-12) {
		return nil, fmt.Errorf("riccati: R is not symmetric: %w", dynamo.ErrSingularCostMatrix)
	}

	sym := mat.NewSymDense(m.c, nil)
	for i := 0; i < m.c; i++ {
		for j := i; j < m.c; j++ {
			sym.SetSym(i, j, m.r.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("riccati: cholesky of R failed: %w", dynamo.ErrSingularCostMatrix)
	}
	if cond := chol.Cond(); cond > maxCondition {
		return nil, fmt.Errorf("riccati: R condition number %.3g: %w", cond, dynamo.ErrSingularCostMatrix)
	}
	return &chol, nil
}

// RInvBt returns R⁻¹Bᵀ (C×S).
func (m *Model) RInvBt() (*mat.Dense, error) {
	chol, err := m.costFactor()
	if err != nil {
		return nil, err
	}
	var out mat.Dense
	if err := chol.SolveTo(&out, m.b.T()); err != nil {
		return nil, fmt.Errorf("riccati: solving R⁻¹Bᵀ: %v: %w", err, dynamo.ErrSingularCostMatrix)
	}
	return &out, nil
}

// controlGram returns G = BR⁻¹Bᵀ.
func (m *Model) controlGram() (*mat.Dense, error) {
	rinvBt, err := m.RInvBt()
	if err != nil {
		return nil, err
	}
	g := mat.NewDense(m.s, m.s, nil)
	g.Mul(m.b, rinvBt)
	symmetrize(g)
	return g, nil
}

const maxCondition = 1e14

func symmetrize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 0.5 * (m.At(i, j) + m.At(j, i))
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
}

func toSym(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return sym
}

func identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}
