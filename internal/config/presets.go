package config

import "sort"

var Presets = map[string]map[string]*Config{
	"double_integrator": {
		"regulate": {
			Model: "double_integrator", Integrator: "rk4", Controller: "lqr", Dt: 0.01, Duration: 15.0,
			InitState: []float64{1, 0},
			Weights:   WeightsConfig{Q: []float64{1, 1}, R: []float64{1}},
			LQR:       LQRConfig{TrimAxis: 1, TrimDeadband: DefaultTrimDeadband},
			PID:       PIDConfig{Kp: DefaultKp, Kd: DefaultKd},
		},
		"track": {
			Model: "double_integrator", Integrator: "rk4", Controller: "lqr", Dt: 0.01, Duration: 20.0,
			InitState: []float64{0, 0}, Target: []float64{2, 0},
			Weights: WeightsConfig{Q: []float64{10, 1}, R: []float64{0.5}},
			LQR:     LQRConfig{Ki: 0.001, TrimAxis: 0, TrimDeadband: DefaultTrimDeadband},
			PID:     PIDConfig{Kp: DefaultKp, Kd: DefaultKd},
		},
		"pid": {
			Model: "double_integrator", Integrator: "rk4", Controller: "pid", Dt: 0.01, Duration: 20.0,
			InitState: []float64{0, 0}, Target: []float64{1, 0},
			Weights: WeightsConfig{Q: []float64{1, 1}, R: []float64{1}},
			LQR:     LQRConfig{TrimAxis: 1, TrimDeadband: DefaultTrimDeadband},
			PID:     PIDConfig{Kp: 2.0, Ki: 0.0, Kd: 40.0},
		},
		"discrete": {
			Model: "double_integrator", Integrator: "euler", Controller: "lqr", Dt: 0.01, Duration: 15.0,
			InitState: []float64{1, 0},
			Weights:   WeightsConfig{Q: []float64{1, 1}, R: []float64{1}},
			LQR:       LQRConfig{TrimAxis: 1, TrimDeadband: DefaultTrimDeadband, Discrete: true, Seed: "identity"},
			PID:       PIDConfig{Kp: DefaultKp, Kd: DefaultKd},
		},
	},
	"pitch": {
		"gust": {
			Model: "pitch", Integrator: "rk4", Controller: "lqr", Dt: 0.005, Duration: 5.0,
			InitState: []float64{0, 0, 0.05, 0},
			Weights:   WeightsConfig{Q: []float64{1, 0.1, 10, 1}, R: []float64{1}},
			LQR:       LQRConfig{TrimAxis: 2, TrimDeadband: DefaultTrimDeadband},
			PID:       PIDConfig{Kp: DefaultKp, Kd: DefaultKd, Measure: 2},
			Airframe:  AirframeConfig{Speed: 100, Time: 0.5},
			Thresholds: []ThresholdConfig{
				{Source: "state", Index: 2, Limit: 0.5, Pyro: 1},
			},
		},
		"staged": {
			Model: "pitch", Integrator: "rk4", Controller: "none", Dt: 0.005, Duration: 4.0,
			InitState: []float64{0, 0, 0.02, 0},
			Weights:   WeightsConfig{Q: []float64{1, 0.1, 10, 1}, R: []float64{1}},
			LQR:       LQRConfig{TrimAxis: 2, TrimDeadband: DefaultTrimDeadband},
			PID:       PIDConfig{Kp: DefaultKp, Kd: DefaultKd, Measure: 2},
			Airframe:  AirframeConfig{Speed: 100, Time: 0.5},
			Phases: []PhaseConfig{
				{Name: "rail", Start: 0, Controller: "none"},
				{Name: "boost", Start: 0.2, Controller: "lqr"},
			},
		},
		"open_loop": {
			Model: "pitch", Integrator: "rk4", Controller: "none", Dt: 0.005, Duration: 2.0,
			InitState:    []float64{0, 0, 0.01, 0},
			Weights:      WeightsConfig{Q: []float64{1, 0.1, 10, 1}, R: []float64{1}},
			LQR:          LQRConfig{TrimAxis: 2, TrimDeadband: DefaultTrimDeadband},
			PID:          PIDConfig{Measure: 2},
			Airframe:     AirframeConfig{Speed: 100, Time: 0.5},
			DivergeBound: 100,
		},
	},
	"descent": {
		"drogue": {
			Model: "double_integrator", Integrator: "verlet", Controller: "none", Dt: 0.01, Duration: 60.0,
			InitState: []float64{0, 0},
			Weights:   WeightsConfig{Q: []float64{1, 1}, R: []float64{1}},
			LQR:       LQRConfig{TrimAxis: 1},
			Descent:   DescentConfig{Altitude: 1500, Acceleration: -1.2, Dt: 0.01},
		},
		"ballistic": {
			Model: "double_integrator", Integrator: "verlet", Controller: "none", Dt: 0.01, Duration: 30.0,
			InitState: []float64{0, 0},
			Weights:   WeightsConfig{Q: []float64{1, 1}, R: []float64{1}},
			LQR:       LQRConfig{TrimAxis: 1},
			Descent:   DescentConfig{Altitude: 1500, Acceleration: -9.80665, Dt: 0.001},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
