package riccati

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
)

const (
	DefaultTolerance         = 1e-9
	DefaultMaxIterations     = 100
	DefaultResidualTolerance = 1e-6
)

// Options bounds a solve. Zero fields take the package defaults.
type Options struct {
	// Tolerance on the relative Frobenius change between iterates.
	Tolerance float64
	// MaxIterations caps the iteration; reaching it is ErrConvergenceFailure.
	MaxIterations int
	// ResidualTolerance bounds the relative residual of the returned solution.
	ResidualTolerance float64
}

func DefaultOptions() Options {
	return Options{
		Tolerance:         DefaultTolerance,
		MaxIterations:     DefaultMaxIterations,
		ResidualTolerance: DefaultResidualTolerance,
	}
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.ResidualTolerance <= 0 {
		o.ResidualTolerance = DefaultResidualTolerance
	}
	return o
}

// Solve returns the stabilizing solution of the continuous-time algebraic
// Riccati equation for m.
//
// Z = [A, G; Q, −Aᵀ] with G = BR⁻¹Bᵀ is driven to its matrix sign W by the
// scaled Newton iteration Z ← ckZ, Z ← Z − ½(Z − Z⁻¹) with
// ck = |det Z|^(−1/2S). H then solves [W12; W22+I]·H = [W11+I; W21] in the
// least squares sense.
func Solve(m *Model, opts Options) (*mat.SymDense, error) {
	opts = opts.withDefaults()
	s, _ := m.Dims()
	n := 2 * s

	g, err := m.controlGram()
	if err != nil {
		return nil, &SolveError{Stage: "control gram", Wrapped: err}
	}

	z := mat.NewDense(n, n, nil)
	z.Slice(0, s, 0, s).(*mat.Dense).Copy(m.a)
	z.Slice(0, s, s, n).(*mat.Dense).Copy(g)
	z.Slice(s, n, 0, s).(*mat.Dense).Copy(m.q)
	z.Slice(s, n, s, n).(*mat.Dense).Scale(-1, m.a.T())

	w, iter, err := signIteration(z, opts)
	if err != nil {
		return nil, err
	}

	lhs := mat.NewDense(n, s, nil)
	rhs := mat.NewDense(n, s, nil)
	lhs.Slice(0, s, 0, s).(*mat.Dense).Copy(w.Slice(0, s, s, n))
	lhs.Slice(s, n, 0, s).(*mat.Dense).Add(w.Slice(s, n, s, n), identity(s))
	rhs.Slice(0, s, 0, s).(*mat.Dense).Add(w.Slice(0, s, 0, s), identity(s))
	rhs.Slice(s, n, 0, s).(*mat.Dense).Copy(w.Slice(s, n, 0, s))

	var h mat.Dense
	if err := h.Solve(lhs, rhs); err != nil {
		return nil, &SolveError{Stage: "invariant subspace extraction", Iteration: iter, Wrapped: dynamo.ErrSingularMatrix}
	}

	sol := toSym(&h)
	res := careResidual(m, g, sol)
	if math.IsNaN(res) || res > opts.ResidualTolerance {
		return nil, &SolveError{Stage: "residual check", Iteration: iter, Residual: res, Wrapped: dynamo.ErrConvergenceFailure}
	}
	return sol, nil
}

// signIteration overwrites z with its matrix sign and returns it together
// with the number of iterations used.
func signIteration(z *mat.Dense, opts Options) (*mat.Dense, int, error) {
	n, _ := z.Dims()
	prev := mat.NewDense(n, n, nil)
	inv := mat.NewDense(n, n, nil)
	diff := mat.NewDense(n, n, nil)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		prev.Copy(z)

		logDet, sign := mat.LogDet(z)
		if sign == 0 || math.IsInf(logDet, 0) || math.IsNaN(logDet) {
			return nil, iter, &SolveError{Stage: "determinant scaling", Iteration: iter, Wrapped: dynamo.ErrSingularMatrix}
		}
		// Byers' determinant scaling, ck = |det Z|^(-1/n).
		ck := math.Exp(-logDet / float64(n))
		z.Scale(ck, z)

		if err := inv.Inverse(z); err != nil {
			return nil, iter, &SolveError{Stage: "sign iteration inverse", Iteration: iter, Wrapped: dynamo.ErrSingularMatrix}
		}
		diff.Sub(z, inv)
		diff.Scale(0.5, diff)
		z.Sub(z, diff)

		base := mat.Norm(prev, 2)
		diff.Sub(z, prev)
		if base > 0 && mat.Norm(diff, 2)/base < opts.Tolerance {
			return z, iter, nil
		}
	}

	return nil, opts.MaxIterations, &SolveError{Stage: "sign iteration", Iteration: opts.MaxIterations, Wrapped: dynamo.ErrConvergenceFailure}
}

// careResidual returns ‖AᵀH + HA − HGH + Q‖_F / max(1, ‖Q‖_F).
func careResidual(m *Model, g *mat.Dense, h *mat.SymDense) float64 {
	s, _ := m.Dims()
	res := mat.NewDense(s, s, nil)
	tmp := mat.NewDense(s, s, nil)

	res.Mul(m.a.T(), h)
	tmp.Mul(h, m.a)
	res.Add(res, tmp)

	tmp.Mul(h, g)
	tmp.Mul(tmp, h)
	res.Sub(res, tmp)
	res.Add(res, m.q)

	return mat.Norm(res, 2) / math.Max(1, mat.Norm(m.q, 2))
}
