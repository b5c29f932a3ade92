package control

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/flightctl/internal/dynamo"
)

type flakyLaw struct {
	fail   bool
	value  float64
	resets int
}

func (f *flakyLaw) Update(current, desired dynamo.State) (Output, error) {
	if f.fail {
		return Output{}, dynamo.ErrInvalidState
	}
	return Output{Value: f.value, Control: dynamo.Control{f.value}}, nil
}

func (f *flakyLaw) Reset() { f.resets++ }

func TestNone(t *testing.T) {
	law := None{Dim: 2}
	u := law.Compute(dynamo.State{1.0, 2.0}, 0.0)

	if len(u) != 2 {
		t.Errorf("expected 2 controls, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}
}

func TestNewLaw(t *testing.T) {
	for _, kind := range []string{"lqr", "pid", "none"} {
		law, err := NewLaw(kind, LawParams{Controls: 1})
		if err != nil {
			t.Errorf("%s: %v", kind, err)
		}
		if law == nil {
			t.Errorf("%s: nil law", kind)
		}
	}
	if _, err := NewLaw("mpc", LawParams{}); err == nil {
		t.Error("expected error for unknown law")
	}
}

func TestFailSafeHoldsLastOutput(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	law := &flakyLaw{value: 3}
	fs := NewFailSafe(law, dynamo.State{0}, 1)
	fs.Logger = zap.New(core)

	u := fs.Compute(dynamo.State{1}, 0)
	if u[0] != 3 {
		t.Fatalf("expected 3, got %f", u[0])
	}

	law.fail = true
	for i := 0; i < 3; i++ {
		u = fs.Compute(dynamo.State{1}, float64(i))
		if u[0] != 3 {
			t.Errorf("expected held output 3, got %f", u[0])
		}
	}
	if fs.Faults != 3 {
		t.Errorf("expected 3 faults, got %d", fs.Faults)
	}
	if !errors.Is(fs.LastErr, dynamo.ErrInvalidState) {
		t.Errorf("unexpected last error %v", fs.LastErr)
	}
	if !fs.Holding() {
		t.Error("expected holding state")
	}
	if n := logs.FilterMessage("control fault").Len(); n != 1 {
		t.Errorf("expected one fault entry, got %d", n)
	}

	law.fail = false
	law.value = 4
	if u = fs.Compute(dynamo.State{1}, 4); u[0] != 4 {
		t.Errorf("expected recovery to 4, got %f", u[0])
	}
	recovered := logs.FilterMessage("control recovered").All()
	if len(recovered) != 1 {
		t.Fatal("recovery not logged")
	}
	if got := recovered[0].ContextMap()["faults"]; got != int64(3) {
		t.Errorf("expected faults=3 on recovery, got %v", got)
	}
}

func TestFailSafeZeroBeforeFirstSuccess(t *testing.T) {
	fs := NewFailSafe(&flakyLaw{fail: true}, dynamo.State{0}, 2)
	fs.Logger = zap.NewNop()

	u := fs.Compute(dynamo.State{0}, 0)
	if len(u) != 2 || u[0] != 0 || u[1] != 0 {
		t.Errorf("expected zero hold, got %v", u)
	}
}

func TestFailSafeUngainedLQR(t *testing.T) {
	fs := NewFailSafe(NewLQR(0), dynamo.State{0, 0}, 1)
	fs.Logger = zap.NewNop()

	fs.Compute(dynamo.State{1, 0}, 0)
	if !errors.Is(fs.LastErr, dynamo.ErrGainNotComputed) {
		t.Errorf("expected ErrGainNotComputed, got %v", fs.LastErr)
	}
}

func TestSelector(t *testing.T) {
	boost := &flakyLaw{value: 1}
	coast := &flakyLaw{value: 2}

	sel := NewSelector()
	sel.Register("boost", boost)
	sel.Register("coast", coast)

	if sel.Active() != "boost" {
		t.Errorf("expected first registered law active, got %s", sel.Active())
	}
	out, _ := sel.Update(nil, nil)
	if out.Value != 1 {
		t.Errorf("expected boost output, got %f", out.Value)
	}

	if err := sel.Select("coast"); err != nil {
		t.Fatal(err)
	}
	if coast.resets != 1 {
		t.Errorf("expected coast law reset on select, got %d", coast.resets)
	}
	out, _ = sel.Update(nil, nil)
	if out.Value != 2 {
		t.Errorf("expected coast output, got %f", out.Value)
	}

	if err := sel.Select("descent"); err == nil {
		t.Error("expected error for unknown phase")
	}
	if got := sel.Names(); len(got) != 2 || got[0] != "boost" {
		t.Errorf("unexpected names %v", got)
	}
}
