package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// PowerSpectrum returns the magnitude of the one-sided spectrum of data
// with its mean removed. Bin k is at frequency k/(len(data)·dt).
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	spectrum := fft.FFTReal(centred)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// bin and its magnitude.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || !(dt > 0) {
		return 0, 0
	}
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return float64(best) / (float64(len(data)) * dt), ps[best]
}

// LimitCycle describes the oscillation in the tail of a response.
type LimitCycle struct {
	Frequency float64 // Hz
	Amplitude float64 // half peak-to-peak over the final quarter
	Sustained bool
}

// DetectLimitCycle compares the oscillation amplitude in the final
// quarter of data against the second quarter. The oscillation counts as
// sustained when it keeps at least half its amplitude and exceeds tol.
func DetectLimitCycle(data []float64, dt, tol float64) LimitCycle {
	n := len(data)
	if n < 8 {
		return LimitCycle{}
	}
	q := n / 4
	early := halfRange(data[q : 2*q])
	late := halfRange(data[n-q:])

	freq, _ := DominantFrequency(data[n/2:], dt)
	return LimitCycle{
		Frequency: freq,
		Amplitude: late,
		Sustained: late > tol && late >= 0.5*early,
	}
}

func halfRange(v []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return (hi - lo) / 2
}

// Column extracts state component idx from a recorded trajectory.
func Column(states []dynamo.State, idx int) []float64 {
	out := make([]float64, 0, len(states))
	for _, s := range states {
		if idx < len(s) {
			out = append(out, s[idx])
		}
	}
	return out
}
