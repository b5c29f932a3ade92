package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/flightctl/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "double_integrator" {
		t.Errorf("expected model double_integrator, got %s", cfg.Model)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("double_integrator", "track")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Target[0] != 2 {
		t.Errorf("expected target 2, got %f", cfg.Target[0])
	}

	cfg.Target[0] = 99
	if Presets["double_integrator"]["track"].Target[0] != 2 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("pitch", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "gust"); cfg != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, group := range ListGroups() {
		for _, name := range ListPresets(group) {
			if err := GetPreset(group, name).Validate(); err != nil {
				t.Errorf("%s/%s: %v", group, name, err)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("pitch")
	if len(presets) == 0 {
		t.Error("expected presets for pitch")
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown model", func(c *Config) { c.Model = "glider" }, dynamo.ErrParameterBounds},
		{"unknown controller", func(c *Config) { c.Controller = "mpc" }, dynamo.ErrParameterBounds},
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrInvalidStep},
		{"short init state", func(c *Config) { c.InitState = []float64{1} }, dynamo.ErrDimensionMismatch},
		{"long q", func(c *Config) { c.Weights.Q = []float64{1, 1, 1} }, dynamo.ErrDimensionMismatch},
		{"trim axis", func(c *Config) { c.LQR.TrimAxis = 2 }, dynamo.ErrDimensionMismatch},
		{"bad seed", func(c *Config) { c.LQR.Seed = "noise" }, dynamo.ErrParameterBounds},
		{"ragged plant", func(c *Config) {
			c.Model = "linear"
			c.Plant.A = [][]float64{{0, 1}, {0}}
			c.Plant.B = [][]float64{{0}, {1}}
		}, dynamo.ErrDimensionMismatch},
		{"phase order", func(c *Config) {
			c.Phases = []PhaseConfig{{Name: "b", Start: 1, Controller: "lqr"}, {Name: "a", Start: 0, Controller: "none"}}
		}, dynamo.ErrParameterBounds},
		{"threshold source", func(c *Config) {
			c.Thresholds = []ThresholdConfig{{Source: "sensor"}}
		}, dynamo.ErrParameterBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLinearModelDims(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "linear"
	cfg.Plant.A = [][]float64{{0, 1, 0}, {0, 0, 1}, {0, 0, 0}}
	cfg.Plant.B = [][]float64{{0, 0}, {0, 0}, {1, 1}}
	cfg.InitState = []float64{1, 0, 0}
	cfg.Weights = WeightsConfig{Q: []float64{1, 1, 1}, R: []float64{1, 1}}

	if cfg.StateDim() != 3 || cfg.ControlDim() != 2 {
		t.Errorf("dims %d×%d, want 3×2", cfg.StateDim(), cfg.ControlDim())
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.yaml")
	cfg := GetPreset("pitch", "staged")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Model != "pitch" || loaded.Airframe.Speed != 100 {
		t.Errorf("unexpected model %q speed %g", loaded.Model, loaded.Airframe.Speed)
	}
	if len(loaded.Phases) != 2 || loaded.Phases[1].Controller != "lqr" {
		t.Errorf("phases lost: %+v", loaded.Phases)
	}
	if len(loaded.Weights.Q) != 4 {
		t.Errorf("weights lost: %+v", loaded.Weights)
	}
}

func TestDense(t *testing.T) {
	m, err := Dense([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if m.At(1, 0) != 3 {
		t.Errorf("unexpected element %f", m.At(1, 0))
	}
	if _, err := Dense(nil); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
