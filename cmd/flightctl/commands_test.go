package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		values  []float64
		wantErr bool
	}{
		{"pid.kp=1,2, 4", "pid.kp", []float64{1, 2, 4}, false},
		{"q2=10", "q2", []float64{10}, false},
		{"q2", "", nil, true},
		{"=1,2", "", nil, true},
		{"r0=a", "", nil, true},
	}
	for _, tt := range tests {
		name, values, err := parseParam(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v", tt.in, err)
			continue
		}
		if name != tt.name || len(values) != len(tt.values) {
			t.Errorf("%q: got %s %v", tt.in, name, values)
			continue
		}
		for i := range values {
			if values[i] != tt.values[i] {
				t.Errorf("%q: value %d = %g", tt.in, i, values[i])
			}
		}
	}
}

func TestLoadConfigFlagsOverridePreset(t *testing.T) {
	cmd := &cobra.Command{}
	addConfigFlags(cmd)
	addSimFlags(cmd)
	t.Cleanup(func() { preset, configFile = "", "" })

	if err := cmd.Flags().Parse([]string{"--preset", "pitch/staged", "--dt", "0.002", "--controller", "pid"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "pitch" || cfg.Dt != 0.002 || cfg.Controller != "pid" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Phases) != 0 {
		t.Error("an explicit controller should drop the phase schedule")
	}
	// unchanged flags keep the preset value
	if cfg.Duration != 4.0 {
		t.Errorf("duration %f, want preset 4.0", cfg.Duration)
	}
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := &cobra.Command{}
	addConfigFlags(cmd)
	t.Cleanup(func() { preset = "" })

	for _, p := range []string{"pitch/nope", "pitch"} {
		if err := cmd.Flags().Set("preset", p); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(cmd); err == nil {
			t.Errorf("preset %q should fail", p)
		}
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.log")
	logger, err := newLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("phase", zap.String("phase", "boost"), zap.Float64("t", 0.2))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	for _, want := range []string{"phase", `"phase": "boost"`, `"app": "flightctl"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}
