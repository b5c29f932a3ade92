package main

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/airframe"
	"github.com/san-kum/flightctl/internal/analysis"
	"github.com/san-kum/flightctl/internal/automation"
	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/dynamo"
	"github.com/san-kum/flightctl/internal/experiment"
	"github.com/san-kum/flightctl/internal/optim"
	"github.com/san-kum/flightctl/internal/storage"
	"github.com/san-kum/flightctl/internal/viz"
)

// loadConfig resolves defaults, then the preset, then the config file, then
// any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want group/name", preset)
		}
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(group))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
		cfg.Phases = nil
	}
	if flags.Changed("lqr-ki") {
		cfg.LQR.Ki = lqrKi
	}
	if flags.Changed("discrete") {
		cfg.LQR.Discrete = discrete
	}
	if flags.Changed("kp") {
		cfg.PID.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.PID.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.PID.Kd = kd
	}
	return cfg, cfg.Validate()
}

func newExperiment(cmd *cobra.Command, logger *zap.Logger) (*experiment.Experiment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return experiment.New(cfg, experiment.Options{Logger: logger})
}

func printGain(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("controller") {
		if err := cmd.Flags().Set("controller", "lqr"); err != nil {
			return err
		}
	}
	exp, err := newExperiment(cmd, zap.L())
	if err != nil {
		return err
	}
	lqr := exp.LQR()
	if lqr == nil {
		return fmt.Errorf("no lqr law configured")
	}
	st := viz.NewStyles(viz.ThemeConsole)
	cfg := exp.Config()

	kind := "continuous"
	if cfg.LQR.Discrete {
		kind = fmt.Sprintf("discrete, dt=%g", cfg.Dt)
	}
	fmt.Println(st.Title.Render(fmt.Sprintf("%s gain (%s)", cfg.Model, kind)))
	fmt.Println()

	plant := exp.Plant()
	k := lqr.Gain()
	printMatrix("K", k, nil)
	if h := lqr.Solution(); h != nil {
		printMatrix("H", h, plant.Labels)
	}

	a, b := mat.Matrix(plant.A), mat.Matrix(plant.B)
	if cfg.LQR.Discrete {
		a, b = experiment.Discretize(plant.A, plant.B, cfg.Dt)
	}
	poles, err := analysis.ClosedLoopPoles(a, b, k)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLE\tREAL\tIMAG\t|p|")
	for i, p := range poles {
		fmt.Fprintf(w, "%d\t%+.6f\t%+.6f\t%.6f\n", i, real(p), imag(p), cmplx.Abs(p))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cfg.LQR.Discrete {
		radius := 0.0
		for _, p := range poles {
			radius = math.Max(radius, cmplx.Abs(p))
		}
		fmt.Println(st.Field("radius", fmt.Sprintf("%.6f", radius)))
		return nil
	}
	margin := analysis.StabilityMargin(poles)
	style := st.OK
	if margin <= 0 {
		style = st.Fault
	}
	fmt.Println(st.Label.Render("margin") + style.Render(fmt.Sprintf("%.6f", margin)))
	return nil
}

func printMatrix(name string, m mat.Matrix, labels []string) {
	if m == nil {
		return
	}
	fmt.Printf("%s =\n", name)
	r, c := m.Dims()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i := 0; i < r; i++ {
		if i < len(labels) {
			fmt.Fprintf(w, "  %s\t", labels[i])
		} else {
			fmt.Fprint(w, "  \t")
		}
		for j := 0; j < c; j++ {
			fmt.Fprintf(w, "%.6f\t", m.At(i, j))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	fmt.Println()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, zap.L())
	if err != nil {
		return err
	}
	cfg := exp.Config()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	zap.L().Info("run",
		zap.String("model", cfg.Model),
		zap.String("integrator", cfg.Integrator),
		zap.String("controller", cfg.Controller),
		zap.Float64("dt", cfg.Dt),
		zap.Float64("duration", cfg.Duration),
	)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var gain mat.Matrix
	if k := exp.Gain(); k != nil {
		gain = k
	}
	runID, err := st.Save(cfg, gain, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("stopped: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	// the live view owns the terminal
	logger, err := newLogger(filepath.Join(dataDir, "live.log"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	exp, err := newExperiment(cmd, logger)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	plant := exp.Plant()

	m := viz.NewModel(exp, cfg.GetInitState(), cfg.Dt, cfg.Model, plant.Labels)
	m.SetTheme(viz.GetTheme(theme))
	m.Holding = exp.Controller().Holding
	if cfg.Model == "pitch" {
		m.Axis = 2
	}
	if plant.ControlLimit > 0 {
		m.FinLimit = plant.ControlLimit
	}
	if c, ok := plant.System.(dynamo.Configurable); ok {
		m.Tune(c)
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func runDescent(cmd *cobra.Command, args []string) error {
	if preset == "" && configFile == "" {
		preset = "descent/drogue"
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d := cfg.Descent
	if cmd.Flags().Changed("dt") {
		d.Dt = dt
	}

	var rocket *airframe.Rocket
	if withDrag {
		rocket = airframe.Sounding()
	}
	res, err := experiment.Descent(d, rocket)
	if err != nil {
		return err
	}

	fmt.Printf("altitude:     %.1f m\n", d.Altitude)
	fmt.Printf("acceleration: %.3f m/s²\n", d.Acceleration)
	fmt.Printf("time:         %.3f s\n", res.Time)
	fmt.Printf("velocity:     %.3f m/s\n", res.Velocity)
	if rocket != nil {
		fmt.Printf("with drag:    %.3f m/s (%s)\n", res.DragVelocity, rocket.Name)
	}
	fmt.Println()

	graph := asciigraph.Plot(res.Altitude,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption("altitude (m)"),
	)
	fmt.Println(graph)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		return fmt.Errorf("no --param given")
	}

	names := make([]string, 0, len(params))
	ranges := make([][]float64, 0, len(params))
	for _, p := range params {
		name, values, err := parseParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs := optim.NewGridSearch(names, ranges)
	gs.Workers = workers

	zap.L().Info("tune", zap.Int("points", len(gs.Points())), zap.String("metric", metric))
	best, value, trials, err := gs.Search(context.Background(), cfg, metric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(names, "\t")+"\t"+strings.ToUpper(metric))
	for _, tr := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", tr.Params[n])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "error: %v\n", tr.Err)
		} else {
			fmt.Fprintf(w, "%.6f\n", tr.Value)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nbest:")
	for _, n := range names {
		fmt.Printf("  %s = %g\n", n, best[n])
	}
	fmt.Printf("  %s = %.6f\n", metric, value)
	return nil
}

// parseParam splits "name=v1,v2,...".
func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("param %q: want name=v1,v2,...", s)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("param %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tINTEG\tCTRL\tIAE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%.4f\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.Metrics["tracking_iae"],
		)
	}

	return w.Flush()
}

func stateLabels(model string) []string {
	cfg := config.DefaultConfig()
	cfg.Model = model
	plant, err := experiment.NewRegistry().GetModel(cfg)
	if err != nil {
		return nil
	}
	return plant.Labels
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(traj.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(traj.States))
	labels := stateLabels(meta.Model)

	if xAxis >= 0 || yAxis >= 0 {
		portrait := analysis.PhasePortrait(traj.States, max(xAxis, 0), max(yAxis, 0), labels)
		if portrait == nil {
			return fmt.Errorf("state dimension too small for selected axes")
		}
		fmt.Printf("phase portrait: %s vs %s\n\n", portrait.YLabel, portrait.XLabel)
		fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
		return nil
	}

	for i := range traj.States[0] {
		graph := asciigraph.Plot(analysis.Column(traj.States, i),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(label(labels, i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(traj.Controls) > 0 && len(traj.Controls[0]) > 0 {
		u := make([]float64, len(traj.Controls))
		for i, c := range traj.Controls {
			u[i] = c[0]
		}
		fmt.Println(asciigraph.Plot(u, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("u0")))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(traj.States) < 4 {
		return fmt.Errorf("insufficient data for analysis")
	}

	fmt.Printf("analysis: %s\n\n", meta.ID)
	labels := stateLabels(meta.Model)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tDOMINANT HZ\tPOWER\tLIMIT CYCLE\tAMPLITUDE")
	for i := range traj.States[0] {
		data := analysis.Column(traj.States, i)
		freq, power := analysis.DominantFrequency(data, meta.Dt)
		lc := analysis.DetectLimitCycle(data, meta.Dt, 0.05)
		fmt.Fprintf(w, "%s\t%.4f\t%.4g\t%v\t%.4g\n", label(labels, i), freq, power, lc.Sustained, lc.Amplitude)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if meta.Gain == nil {
		return nil
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	plant, err := experiment.NewRegistry().GetModel(cfg)
	if err != nil {
		return err
	}
	k, err := config.Dense(meta.Gain)
	if err != nil {
		return err
	}
	a, b := mat.Matrix(plant.A), mat.Matrix(plant.B)
	if cfg.LQR.Discrete {
		a, b = experiment.Discretize(plant.A, plant.B, cfg.Dt)
	}
	poles, err := analysis.ClosedLoopPoles(a, b, k)
	if err != nil {
		return err
	}
	fmt.Println("\nclosed-loop poles:")
	for _, p := range poles {
		fmt.Printf("  %+.6f %+.6fi\n", real(p), imag(p))
	}
	if !cfg.LQR.Discrete {
		fmt.Printf("margin: %.6f\n", analysis.StabilityMargin(poles))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	path := output

	if svg {
		if path == "" {
			path = runID + ".svg"
		}
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		traj, err := st.LoadStates(runID)
		if err != nil {
			return err
		}
		portrait := analysis.PhasePortrait(traj.States, svgX, svgY, stateLabels(meta.Model))
		if portrait == nil {
			return fmt.Errorf("state dimension too small for selected axes")
		}
		theme := viz.ThemeConsole
		if err := os.WriteFile(path, []byte(analysis.PhasePortraitToSVG(portrait, 800, 600, string(theme.Primary))), 0644); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, path)
		return nil
	}

	if path == "" {
		path = runID + ".json"
	}
	if err := st.Export(runID, path); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, path)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	r := &automation.Runner{Options: experiment.Options{Logger: zap.L()}, Store: st}
	results, err := r.Run(context.Background(), sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tSTEPS\tIAE\tCOST")
	for _, sr := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.4f\n", sr.Name, sr.RunID, sr.Result.StepsTaken,
			sr.Result.Metrics["tracking_iae"], sr.Result.Metrics["quadratic_cost"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) == 1 {
		groups = []string{args[0]}
	}
	for _, g := range groups {
		presets := config.ListPresets(g)
		if len(presets) == 0 {
			fmt.Printf("no presets for group: %s\n", g)
			continue
		}
		fmt.Printf("%s:\n", g)
		for _, p := range presets {
			cfg := config.GetPreset(g, p)
			fmt.Printf("  %-10s model=%s controller=%s integrator=%s\n", p, cfg.Model, cfg.Controller, cfg.Integrator)
		}
	}
	return nil
}
