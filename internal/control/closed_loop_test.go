package control_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/control"
	"github.com/san-kum/flightctl/internal/dynamo"
)

// euler-propagates x' = Ax + Bu under the law for n ticks of dt
func propagate(law control.Law, a, b *mat.Dense, x0, target dynamo.State, dt float64, n int) dynamo.State {
	s, c := b.Dims()
	x := mat.NewVecDense(s, x0.Clone())
	dx := mat.NewVecDense(s, nil)
	bu := mat.NewVecDense(s, nil)
	for i := 0; i < n; i++ {
		out, err := law.Update(dynamo.State(x.RawVector().Data), target)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Control).To(HaveLen(c))

		dx.MulVec(a, x)
		bu.MulVec(b, mat.NewVecDense(c, out.Control))
		dx.AddVec(dx, bu)
		x.AddScaledVec(x, dt, dx)
	}
	return dynamo.State(x.RawVector().Data).Clone()
}

var _ = Describe("LQR", func() {
	var (
		lqr  *control.LQR
		a, b *mat.Dense
	)

	BeforeEach(func() {
		a = mat.NewDense(2, 2, []float64{0, 1, 0, 0})
		b = mat.NewDense(2, 1, []float64{0, 1})
		lqr = control.NewLQR(0)
		_, err := lqr.ComputeGain(a, b,
			mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
			mat.NewDense(1, 1, []float64{1}), 1e-9)
		Expect(err).NotTo(HaveOccurred())
	})

	It("drives the double integrator to the target", func() {
		x := propagate(lqr, a, b, dynamo.State{1, 0}, dynamo.State{0, 0}, 0.01, 2000)
		Expect(math.Abs(x[0])).To(BeNumerically("<", 1e-3))
		Expect(math.Abs(x[1])).To(BeNumerically("<", 1e-3))
	})

	It("tracks a non-zero position target", func() {
		x := propagate(lqr, a, b, dynamo.State{0, 0}, dynamo.State{2, 0}, 0.01, 2000)
		Expect(x[0]).To(BeNumerically("~", 2, 1e-3))
	})

	It("keeps the Riccati solution alongside the gain", func() {
		h := lqr.Solution()
		Expect(h).NotTo(BeNil())
		Expect(h.At(0, 0)).To(BeNumerically("~", math.Sqrt(3), 1e-6))
		Expect(lqr.Model()).NotTo(BeNil())
	})

	Context("behind a FailSafe", func() {
		It("satisfies dynamo.Controller", func() {
			var ctrl dynamo.Controller = control.NewFailSafe(lqr, dynamo.State{0, 0}, 1)
			u := ctrl.Compute(dynamo.State{1, 0}, 0)
			Expect(u).To(HaveLen(1))
			Expect(u[0]).To(BeNumerically("~", -1, 1e-6))
		})
	})
})

var _ = Describe("PIDLaw", func() {
	It("settles a damped plant on the setpoint", func() {
		a := mat.NewDense(2, 2, []float64{0, 1, 0, -1})
		b := mat.NewDense(2, 1, []float64{0, 1})
		law := control.NewPIDLaw(control.NewPID(4, 0.01, 0, 0), 0, 0, 1)

		x := propagate(law, a, b, dynamo.State{0, 0}, dynamo.State{1, 0}, 0.01, 3000)
		Expect(x[0]).To(BeNumerically("~", 1, 1e-2))
	})
})
