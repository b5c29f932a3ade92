package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/experiment"
	"github.com/san-kum/flightctl/internal/sim"
)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates every combination of parameter values and keeps
// the one minimizing a metric. Each grid point gets its own experiment, so
// points run in parallel without sharing controller state.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	Workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Points enumerates the grid in row-major order.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[i]))
		for _, p := range points {
			for _, v := range g.ranges[i] {
				q := make(map[string]float64, len(p)+1)
				for k, x := range p {
					q[k] = x
				}
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search runs base with every grid point applied and returns the best
// point by metricName along with all trials. Points whose run fails or
// stops early are kept in trials with their error and never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("grid: %d params, %d ranges", len(g.paramNames), len(g.ranges))
	}
	points := g.Points()
	build := func(i int) (sim.Run, error) {
		cfg := base.Clone()
		if err := Apply(cfg, points[i]); err != nil {
			return sim.Run{}, err
		}
		exp, err := experiment.New(cfg, experiment.Options{})
		if err != nil {
			return sim.Run{}, err
		}
		return sim.Run{Sim: exp.GetSimulator(), X0: cfg.GetInitState()}, nil
	}

	simCfg := dynamo.Config{
		Dt:            base.Dt,
		Duration:      base.Duration,
		ValidateState: true,
		DivergeBound:  base.DivergeBound,
	}
	results, errs := sim.NewEnsemble(build, len(points), g.Workers).Run(ctx, simCfg)

	trials := make([]Trial, len(points))
	best := math.Inf(1)
	var bestParams map[string]float64
	for i, p := range points {
		trials[i] = Trial{Params: p, Value: math.NaN(), Err: errs[i]}
		if errs[i] != nil {
			continue
		}
		if len(results[i].Errors) > 0 {
			trials[i].Err = errors.Join(results[i].Errors...)
			continue
		}
		val, ok := results[i].Metrics[metricName]
		if !ok {
			return nil, 0, trials, fmt.Errorf("grid: unknown metric %q", metricName)
		}
		trials[i].Value = val
		if val < best {
			best = val
			bestParams = p
		}
	}
	if err := ctx.Err(); err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, 0, trials, fmt.Errorf("grid: no successful trial")
	}
	return bestParams, best, trials, nil
}

// Apply sets named parameters on cfg. Names: pid.kp, pid.ki, pid.kd,
// lqr.ki, q<i> and r<i> for the diagonal weights.
func Apply(cfg *config.Config, params map[string]float64) error {
	for name, v := range params {
		switch {
		case name == "pid.kp":
			cfg.PID.Kp = v
		case name == "pid.ki":
			cfg.PID.Ki = v
		case name == "pid.kd":
			cfg.PID.Kd = v
		case name == "lqr.ki":
			cfg.LQR.Ki = v
		case strings.HasPrefix(name, "q"):
			if err := setIndexed(cfg.Weights.Q, name[1:], v); err != nil {
				return fmt.Errorf("param %s: %w", name, err)
			}
		case strings.HasPrefix(name, "r"):
			if err := setIndexed(cfg.Weights.R, name[1:], v); err != nil {
				return fmt.Errorf("param %s: %w", name, err)
			}
		default:
			return fmt.Errorf("unknown param: %s", name)
		}
	}
	return nil
}

func setIndexed(v []float64, idx string, x float64) error {
	i, err := strconv.Atoi(idx)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(v) {
		return fmt.Errorf("index %d out of range %d", i, len(v))
	}
	v[i] = x
	return nil
}
