package riccati

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// SolveDiscrete returns the stabilizing solution of the discrete-time
// algebraic Riccati equation
//
//	H = AᵀHA − AᵀHB(R + BᵀHB)⁻¹BᵀHA + Q
//
// with the structure preserving doubling algorithm, starting from A₀ = A,
// G₀ = BR⁻¹Bᵀ, H₀ = Q. Every doubling step compares H with the previous
// iterate; seed supplies the baseline for the first comparison and nil means
// ZeroSeed. At least one doubling step always runs.
func SolveDiscrete(m *Model, opts Options, seed Seeder) (*mat.SymDense, error) {
	opts = opts.withDefaults()
	if seed == nil {
		seed = ZeroSeed
	}
	s, _ := m.Dims()

	g0, err := m.controlGram()
	if err != nil {
		return nil, &SolveError{Stage: "control gram", Wrapped: err}
	}

	ak := mat.DenseCopyOf(m.a)
	gk := mat.DenseCopyOf(g0)
	hk := mat.DenseCopyOf(m.q)
	prev := seed(s)
	if r, c := prev.Dims(); r != s || c != s {
		return nil, &SolveError{Stage: "seed", Wrapped: dynamo.ErrDimensionMismatch}
	}

	id := identity(s)
	tmp := mat.NewDense(s, s, nil)
	inv := mat.NewDense(s, s, nil)
	ak1 := mat.NewDense(s, s, nil)
	gk1 := mat.NewDense(s, s, nil)
	hk1 := mat.NewDense(s, s, nil)
	diff := mat.NewDense(s, s, nil)

	converged := false
	iter := 0
	for iter < opts.MaxIterations {
		iter++

		// (I + G·H)⁻¹
		tmp.Mul(gk, hk)
		tmp.Add(id, tmp)
		if err := inv.Inverse(tmp); err != nil {
			return nil, &SolveError{Stage: "doubling inverse (I + GH)", Iteration: iter, Wrapped: dynamo.ErrSingularMatrix}
		}

		tmp.Mul(ak, inv)
		ak1.Mul(tmp, ak)

		gk1.Mul(tmp, gk)
		gk1.Mul(gk1, ak.T())
		gk1.Add(gk, gk1)

		tmp.Mul(ak.T(), hk)
		tmp.Mul(tmp, inv)
		hk1.Mul(tmp, ak)
		hk1.Add(hk, hk1)

		ak.Copy(ak1)
		gk.Copy(gk1)
		hk.Copy(hk1)
		symmetrize(gk)
		symmetrize(hk)

		diff.Sub(hk, prev)
		change := mat.Norm(diff, 2)
		if base := mat.Norm(hk, 2); base > 0 {
			change /= base
		}
		prev.Copy(hk)
		if change < opts.Tolerance {
			converged = true
			break
		}
	}

	if !converged {
		return nil, &SolveError{Stage: "doubling iteration", Iteration: opts.MaxIterations, Wrapped: dynamo.ErrConvergenceFailure}
	}

	sol := toSym(hk)
	res, err := dareResidual(m, sol)
	if err != nil {
		return nil, &SolveError{Stage: "residual check", Iteration: iter, Wrapped: err}
	}
	if math.IsNaN(res) || res > opts.ResidualTolerance {
		return nil, &SolveError{Stage: "residual check", Iteration: iter, Residual: res, Wrapped: dynamo.ErrConvergenceFailure}
	}
	return sol, nil
}

// DiscreteGain returns K = (R + BᵀHB)⁻¹BᵀHA for a discrete solution H.
func DiscreteGain(m *Model, h mat.Symmetric) (*mat.Dense, error) {
	s, c := m.Dims()

	bth := mat.NewDense(c, s, nil)
	bth.Mul(m.b.T(), h)

	denom := mat.NewDense(c, c, nil)
	denom.Mul(bth, m.b)
	denom.Add(m.r, denom)

	num := mat.NewDense(c, s, nil)
	num.Mul(bth, m.a)

	var k mat.Dense
	if err := k.Solve(denom, num); err != nil {
		return nil, dynamo.ErrSingularMatrix
	}
	return &k, nil
}

// dareResidual returns ‖AᵀHA − AᵀHB·K − H + Q‖_F / max(1, ‖Q‖_F).
func dareResidual(m *Model, h *mat.SymDense) (float64, error) {
	s, _ := m.Dims()
	k, err := DiscreteGain(m, h)
	if err != nil {
		return 0, err
	}

	aTh := mat.NewDense(s, s, nil)
	aTh.Mul(m.a.T(), h)

	res := mat.NewDense(s, s, nil)
	res.Mul(aTh, m.a)

	corr := mat.NewDense(s, s, nil)
	hb := mat.NewDense(s, m.c, nil)
	hb.Mul(aTh, m.b)
	corr.Mul(hb, k)

	res.Sub(res, corr)
	res.Sub(res, h)
	res.Add(res, m.q)

	return mat.Norm(res, 2) / math.Max(1, mat.Norm(m.q, 2)), nil
}
