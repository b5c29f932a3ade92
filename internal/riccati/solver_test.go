package riccati_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/riccati"
)

var _ = Describe("Solve", func() {
	var model *riccati.Model

	BeforeEach(func() {
		var err error
		// lateral drift / pitch pair with a lightly unstable pitch mode
		model, err = riccati.NewModel(
			mat.NewDense(4, 4, []float64{
				0, 1, 0, 0,
				0, -0.2, 9.0, 0,
				0, 0, 0, 1,
				0, 0, 2.5, -0.1,
			}),
			mat.NewDense(4, 1, []float64{0, 0, 0, 4}),
			mat.NewDense(4, 4, []float64{
				1, 0, 0, 0,
				0, 0.1, 0, 0,
				0, 0, 10, 0,
				0, 0, 0, 1,
			}),
			mat.NewDense(1, 1, []float64{0.5}),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns a symmetric positive definite solution", func() {
		h, err := riccati.Solve(model, riccati.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		var chol mat.Cholesky
		Expect(chol.Factorize(h)).To(BeTrue())
	})

	It("yields a stabilizing closed loop", func() {
		h, err := riccati.Solve(model, riccati.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		rinvBt, err := model.RInvBt()
		Expect(err).NotTo(HaveOccurred())

		var k, bk, acl mat.Dense
		k.Mul(rinvBt, h)
		bk.Mul(model.B(), &k)
		acl.Sub(model.A(), &bk)

		var eig mat.Eigen
		Expect(eig.Factorize(&acl, mat.EigenNone)).To(BeTrue())
		for _, v := range eig.Values(nil) {
			Expect(real(v)).To(BeNumerically("<", 0))
		}
	})

	It("reports the iteration cap as a convergence failure", func() {
		_, err := riccati.Solve(model, riccati.Options{MaxIterations: 2})
		Expect(err).To(MatchError(dynamo.ErrConvergenceFailure))
	})
})

var _ = Describe("SolveDiscrete", func() {
	var model *riccati.Model

	BeforeEach(func() {
		var err error
		dt := 0.01
		model, err = riccati.NewModel(
			mat.NewDense(2, 2, []float64{1, dt, 0, 1}),
			mat.NewDense(2, 1, []float64{0.5 * dt * dt, dt}),
			mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
			mat.NewDense(1, 1, []float64{1}),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("gives the same answer for every seed", func() {
		zero, err := riccati.SolveDiscrete(model, riccati.DefaultOptions(), riccati.ZeroSeed)
		Expect(err).NotTo(HaveOccurred())

		seeds := map[string]riccati.Seeder{
			"identity": riccati.IdentitySeed,
			"random":   riccati.RandomSeed(rand.New(rand.NewSource(7))),
		}
		for name, seed := range seeds {
			h, err := riccati.SolveDiscrete(model, riccati.DefaultOptions(), seed)
			Expect(err).NotTo(HaveOccurred(), name)

			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					Expect(h.At(i, j)).To(BeNumerically("~", zero.At(i, j), 1e-6*math.Max(1, math.Abs(zero.At(i, j)))), name)
				}
			}
		}
	})

	It("iterates even when the seed equals Q", func() {
		h, err := riccati.SolveDiscrete(model, riccati.DefaultOptions(), riccati.IdentitySeed)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.EqualApprox(h, model.Q(), 1e-6)).To(BeFalse())
	})

	It("produces a gain that places the closed loop inside the unit circle", func() {
		h, err := riccati.SolveDiscrete(model, riccati.DefaultOptions(), nil)
		Expect(err).NotTo(HaveOccurred())

		k, err := riccati.DiscreteGain(model, h)
		Expect(err).NotTo(HaveOccurred())

		var bk, acl mat.Dense
		bk.Mul(model.B(), k)
		acl.Sub(model.A(), &bk)

		var eig mat.Eigen
		Expect(eig.Factorize(&acl, mat.EigenNone)).To(BeTrue())
		for _, v := range eig.Values(nil) {
			Expect(math.Hypot(real(v), imag(v))).To(BeNumerically("<", 1))
		}
	})
})
