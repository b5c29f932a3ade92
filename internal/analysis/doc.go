// Package analysis inspects closed-loop responses after a run.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of one state
//     component, computed with go-dsp
//   - [DetectLimitCycle]: sustained oscillation check on the tail of a
//     response
//   - [ClosedLoopPoles]: eigenvalues of A − BK for a synthesized gain
//   - [PhasePortrait]: 2D phase trajectory of a recorded run with labelled
//     ASCII and SVG renderers
package analysis
