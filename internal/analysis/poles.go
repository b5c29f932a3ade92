package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// ClosedLoopPoles returns the eigenvalues of A − BK sorted by real part,
// largest first.
func ClosedLoopPoles(a, b, k mat.Matrix) ([]complex128, error) {
	s, _ := a.Dims()
	br, bc := b.Dims()
	kr, kc := k.Dims()
	if br != s || kr != bc || kc != s {
		return nil, fmt.Errorf("poles: A %d×%d, B %d×%d, K %d×%d: %w", s, s, br, bc, kr, kc, dynamo.ErrDimensionMismatch)
	}

	var bk, acl mat.Dense
	bk.Mul(b, k)
	acl.Sub(a, &bk)

	var eig mat.Eigen
	if !eig.Factorize(&acl, mat.EigenNone) {
		return nil, fmt.Errorf("poles: eigen decomposition failed: %w", dynamo.ErrConvergenceFailure)
	}
	poles := eig.Values(nil)
	sort.Slice(poles, func(i, j int) bool { return real(poles[i]) > real(poles[j]) })
	return poles, nil
}

// StabilityMargin is the distance of the slowest pole from the imaginary
// axis, negative when a pole has a positive real part.
func StabilityMargin(poles []complex128) float64 {
	margin := math.Inf(1)
	for _, p := range poles {
		margin = math.Min(margin, -real(p))
	}
	return margin
}
