// Package automation runs scripted sequences of closed-loop experiments
// described in YAML.
package automation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/experiment"
	"github.com/san-kum/flightctl/internal/optim"
	"github.com/san-kum/flightctl/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one experiment. It starts from Preset (group/name) or
// Config (a file path), then applies the overrides that are set.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset,omitempty"`
	Config     string             `yaml:"config,omitempty"`
	Integrator string             `yaml:"integrator,omitempty"`
	Controller string             `yaml:"controller,omitempty"`
	Duration   float64            `yaml:"duration,omitempty"`
	Dt         float64            `yaml:"dt,omitempty"`
	InitState  []float64          `yaml:"init_state,flow,omitempty"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Save       bool               `yaml:"save,omitempty"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Build returns the configuration the step runs with.
func (s ScenarioStep) Build() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case s.Preset != "":
		group, name, _ := strings.Cut(s.Preset, "/")
		if cfg = config.GetPreset(group, name); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Controller != "" {
		cfg.Controller = s.Controller
		cfg.Phases = nil
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.InitState != nil {
		cfg.InitState = append([]float64(nil), s.InitState...)
	}
	if err := optim.Apply(cfg, s.Params); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Runner executes scenarios. Store, when set, keeps the steps marked Save.
type Runner struct {
	Options experiment.Options
	Store   *storage.Store
}

// Run executes all steps in order and stops at the first failing one,
// returning the results gathered so far.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))
	logger := r.Options.Logger
	if logger == nil {
		logger = zap.L()
	}

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("steps", len(scenario.Steps)),
			zap.String("name", name),
		)

		cfg, err := step.Build()
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}
		exp, err := experiment.New(cfg, r.Options)
		if err != nil {
			return results, fmt.Errorf("step %s setup: %w", name, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %s run: %w", name, err)
		}

		sr := StepResult{Name: name, Result: result}
		if step.Save && r.Store != nil {
			if k := exp.Gain(); k != nil {
				sr.RunID, err = r.Store.Save(cfg, k, result)
			} else {
				sr.RunID, err = r.Store.Save(cfg, nil, result)
			}
			if err != nil {
				return results, fmt.Errorf("step %s save: %w", name, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}
