package optim

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/flightctl/internal/config"
)

func TestPoints(t *testing.T) {
	g := NewGridSearch([]string{"pid.kp", "pid.kd"}, [][]float64{{1, 2, 3}, {10, 20}})
	points := g.Points()
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[0]["pid.kp"] != 1 || points[0]["pid.kd"] != 10 {
		t.Errorf("unexpected first point %v", points[0])
	}
	if points[5]["pid.kp"] != 3 || points[5]["pid.kd"] != 20 {
		t.Errorf("unexpected last point %v", points[5])
	}
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	err := Apply(cfg, map[string]float64{"pid.kp": 7, "q1": 5, "r0": 0.5, "lqr.ki": 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PID.Kp != 7 || cfg.Weights.Q[1] != 5 || cfg.Weights.R[0] != 0.5 || cfg.LQR.Ki != 0.1 {
		t.Errorf("params not applied: %+v", cfg)
	}
	if err := Apply(cfg, map[string]float64{"q9": 1}); err == nil {
		t.Error("expected out of range error")
	}
	if err := Apply(cfg, map[string]float64{"gain": 1}); err == nil {
		t.Error("expected unknown param error")
	}
}

func TestSearchPIDDamping(t *testing.T) {
	base := config.GetPreset("double_integrator", "pid")
	base.Duration = 10

	g := NewGridSearch([]string{"pid.kd"}, [][]float64{{0, 100, 200}})
	g.Workers = 2
	best, val, trials, err := g.Search(context.Background(), base, "tracking_iae")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(trials))
	}
	// an undamped loop oscillates forever
	if best["pid.kd"] == 0 {
		t.Errorf("undamped gains won with IAE %f", val)
	}
	if math.IsNaN(val) || val <= 0 {
		t.Errorf("unexpected best value %f", val)
	}
}

func TestSearchDoesNotTouchBase(t *testing.T) {
	base := config.DefaultConfig()
	g := NewGridSearch([]string{"q0"}, [][]float64{{5, 10}})
	if _, _, _, err := g.Search(context.Background(), base, "quadratic_cost"); err != nil {
		t.Fatal(err)
	}
	if base.Weights.Q[0] != 1 {
		t.Errorf("base config mutated: %v", base.Weights.Q)
	}
}
