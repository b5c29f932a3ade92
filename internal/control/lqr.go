package control

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/riccati"
)

const (
	DefaultTrimAxis     = 1
	DefaultTrimChannel  = 0
	DefaultTrimDeadband = 1e-2
)

// LQR is a linear-quadratic regulator with an integral trim on one state
// axis.
//
// The trim is not an LQI design: the integral of the error on TrimAxis,
// scaled by Ki, is subtracted from control channel TrimChannel after the
// state feedback. It resets to zero whenever the axis error falls inside
// TrimDeadband.
type LQR struct {
	Ki           float64
	TrimAxis     int
	TrimChannel  int
	TrimDeadband float64

	// Options bounds the Riccati solve; the epsilon passed to ComputeGain
	// overrides the tolerance.
	Options riccati.Options
	// Seed initializes the discrete solver. Nil means riccati.ZeroSeed.
	Seed riccati.Seeder

	model    *riccati.Model
	solution *mat.SymDense
	k        *mat.Dense
	s, c     int
	integral float64

	errBuf *mat.VecDense
	uBuf   *mat.VecDense
}

func NewLQR(ki float64) *LQR {
	return &LQR{
		Ki:           ki,
		TrimAxis:     DefaultTrimAxis,
		TrimChannel:  DefaultTrimChannel,
		TrimDeadband: DefaultTrimDeadband,
		Options:      riccati.DefaultOptions(),
		Seed:         riccati.ZeroSeed,
	}
}

// ComputeGain solves the continuous-time Riccati equation for (A, B, Q, R)
// and stores K = R⁻¹BᵀH. epsilon is the solver tolerance; values <= 0 keep
// Options.Tolerance.
//
// It is an offline operation. On failure the previously computed gain, if
// any, stays in use.
func (l *LQR) ComputeGain(a, b, q, r mat.Matrix, epsilon float64) (*mat.Dense, error) {
	model, err := l.prepare(a, b, q, r)
	if err != nil {
		return nil, err
	}

	h, err := riccati.Solve(model, l.options(epsilon))
	if err != nil {
		return nil, err
	}

	rinvBt, err := model.RInvBt()
	if err != nil {
		return nil, err
	}
	s, c := model.Dims()
	k := mat.NewDense(c, s, nil)
	k.Mul(rinvBt, h)

	l.install(model, h, k)
	return mat.DenseCopyOf(k), nil
}

// ComputeDiscreteGain treats (A, B) as a discrete-time model sampled at the
// control tick and stores K = (R + BᵀHB)⁻¹BᵀHA.
func (l *LQR) ComputeDiscreteGain(a, b, q, r mat.Matrix, epsilon float64) (*mat.Dense, error) {
	model, err := l.prepare(a, b, q, r)
	if err != nil {
		return nil, err
	}

	h, err := riccati.SolveDiscrete(model, l.options(epsilon), l.Seed)
	if err != nil {
		return nil, err
	}

	k, err := riccati.DiscreteGain(model, h)
	if err != nil {
		return nil, err
	}

	l.install(model, h, k)
	return mat.DenseCopyOf(k), nil
}

func (l *LQR) prepare(a, b, q, r mat.Matrix) (*riccati.Model, error) {
	model, err := riccati.NewModel(a, b, q, r)
	if err != nil {
		return nil, err
	}
	s, c := model.Dims()
	if l.TrimAxis < 0 || l.TrimAxis >= s {
		return nil, fmt.Errorf("lqr: trim axis %d outside %d states: %w", l.TrimAxis, s, dynamo.ErrDimensionMismatch)
	}
	if l.TrimChannel < 0 || l.TrimChannel >= c {
		return nil, fmt.Errorf("lqr: trim channel %d outside %d controls: %w", l.TrimChannel, c, dynamo.ErrDimensionMismatch)
	}
	return model, nil
}

func (l *LQR) options(epsilon float64) riccati.Options {
	opts := l.Options
	if epsilon > 0 {
		opts.Tolerance = epsilon
	}
	return opts
}

func (l *LQR) install(model *riccati.Model, h *mat.SymDense, k *mat.Dense) {
	s, c := model.Dims()
	if s != l.s || c != l.c {
		l.errBuf = mat.NewVecDense(s, nil)
		l.uBuf = mat.NewVecDense(c, nil)
		l.integral = 0
	}
	l.model, l.solution, l.k = model, h, k
	l.s, l.c = s, c
}

// ComputeOptimalControls returns the feedback control driving current toward
// desired. It requires a gain from ComputeGain or ComputeDiscreteGain.
func (l *LQR) ComputeOptimalControls(current, desired dynamo.State) (Output, error) {
	if l.k == nil {
		return Output{}, dynamo.ErrGainNotComputed
	}
	u := make(dynamo.Control, l.c)
	if err := l.ComputeOptimalControlsTo(u, current, desired); err != nil {
		return Output{}, err
	}

	feedback := make([]float64, l.c)
	copy(feedback, l.uBuf.RawVector().Data)

	return Output{
		Feedback: feedback,
		Trim:     l.integral,
		Value:    u[l.TrimChannel],
		Control:  u,
	}, nil
}

// ComputeOptimalControlsTo is ComputeOptimalControls writing into dst
// without allocating. dst must have one entry per control channel.
func (l *LQR) ComputeOptimalControlsTo(dst dynamo.Control, current, desired dynamo.State) error {
	if l.k == nil {
		return dynamo.ErrGainNotComputed
	}
	if err := dynamo.CheckDim("lqr: current state", len(current), l.s); err != nil {
		return err
	}
	if err := dynamo.CheckDim("lqr: desired state", len(desired), l.s); err != nil {
		return err
	}
	if err := dynamo.CheckDim("lqr: control", len(dst), l.c); err != nil {
		return err
	}
	// trim indices are exported and may change after synthesis
	if l.TrimAxis < 0 || l.TrimAxis >= l.s {
		return fmt.Errorf("lqr: trim axis %d outside %d states: %w", l.TrimAxis, l.s, dynamo.ErrDimensionMismatch)
	}
	if l.TrimChannel < 0 || l.TrimChannel >= l.c {
		return fmt.Errorf("lqr: trim channel %d outside %d controls: %w", l.TrimChannel, l.c, dynamo.ErrDimensionMismatch)
	}

	for i := 0; i < l.s; i++ {
		l.errBuf.SetVec(i, desired[i]-current[i])
	}

	axisErr := l.errBuf.AtVec(l.TrimAxis)
	if math.Abs(axisErr) < l.TrimDeadband {
		l.integral = 0
	} else {
		l.integral += axisErr * l.Ki
	}

	l.uBuf.MulVec(l.k, l.errBuf)
	for i := 0; i < l.c; i++ {
		dst[i] = l.uBuf.AtVec(i)
	}
	dst[l.TrimChannel] -= l.integral
	return nil
}

// Update implements Law.
func (l *LQR) Update(current, desired dynamo.State) (Output, error) {
	return l.ComputeOptimalControls(current, desired)
}

// Reset clears the integral trim. The gain is kept.
func (l *LQR) Reset() { l.integral = 0 }

// Gain returns a copy of K, or nil before a successful synthesis.
func (l *LQR) Gain() *mat.Dense {
	if l.k == nil {
		return nil
	}
	return mat.DenseCopyOf(l.k)
}

// Solution returns the Riccati solution behind the current gain.
func (l *LQR) Solution() *mat.SymDense { return l.solution }

// Model returns the model the current gain was synthesized from.
func (l *LQR) Model() *riccati.Model { return l.model }

func (l *LQR) Integral() float64 { return l.integral }

func (l *LQR) ControlDim() int { return l.c }

func (l *LQR) String() string {
	return fmt.Sprintf("LQR{states: %d, controls: %d, ki: %g, trim: x[%d] -> u[%d], gain: %t}",
		l.s, l.c, l.Ki, l.TrimAxis, l.TrimChannel, l.k != nil)
}
