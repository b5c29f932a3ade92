package control

import "github.com/san-kum/flightctl/internal/dynamo"

// Output records the contribution of each term of one control evaluation.
// It is built fresh every tick and not modified afterwards.
type Output struct {
	// P, I and D are the PID terms.
	P, I, D float64
	// Feedback is K·error per control channel before trim.
	Feedback []float64
	// Trim is the integral trim subtracted from the trim channel.
	Trim float64
	// Value is the scalar output: the PID sum, or the trimmed channel of an
	// LQR evaluation.
	Value float64
	// Control is the combined control vector.
	Control dynamo.Control
}
