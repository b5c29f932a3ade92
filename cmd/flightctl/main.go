package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64
	lqrKi      float64
	discrete   bool
	// plot axes
	xAxis int
	yAxis int
	// tune
	params  []string
	metric  string
	workers int
	// descent
	withDrag bool
	// live
	theme string
	// export
	output string
	svg    bool
	svgX   int
	svgY   int
)

// main registers the flightctl commands and exits with status 1 when a
// command fails.
func main() {
	logger, err := newLogger()
	if err != nil {
		os.Stderr.WriteString("flightctl: " + err.Error() + "\n")
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	rootCmd := &cobra.Command{
		Use:          "flightctl",
		Short:        "rocket flight control synthesis and closed-loop simulation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flightctl", "data directory")

	gainCmd := &cobra.Command{
		Use:   "gain",
		Short: "synthesize the LQR gain and print K, the Riccati solution and closed-loop poles",
		RunE:  printGain,
	}
	addConfigFlags(gainCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop simulation and store it",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a closed-loop simulation with live visualization",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "console", "color theme")

	descentCmd := &cobra.Command{
		Use:   "descent",
		Short: "time a ballistic or drogue descent",
		RunE:  runDescent,
	}
	addConfigFlags(descentCmd)
	descentCmd.Flags().BoolVar(&withDrag, "drag", false, "integrate airframe drag as well")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller parameters",
		Example: "  flightctl tune --preset double_integrator/pid --param pid.kp=1,2,4 --param pid.kd=1,2,3\n" +
			"  flightctl tune --preset pitch/gust --param q2=1,10,100 --metric control_effort",
		RunE: runTune,
	}
	addConfigFlags(tuneCmd)
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&params, "param", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "quadratic_cost", "metric to minimize")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = NumCPU)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&xAxis, "x-axis", -1, "state index for a phase portrait x-axis")
	plotCmd.Flags().IntVar(&yAxis, "y-axis", -1, "state index for a phase portrait y-axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and limit cycle analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run to JSON or an SVG phase portrait",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.json or .svg)")
	exportCmd.Flags().BoolVar(&svg, "svg", false, "export a phase portrait as SVG instead of JSON")
	exportCmd.Flags().IntVar(&svgX, "x-axis", 0, "phase portrait x-axis state index")
	exportCmd.Flags().IntVar(&svgY, "y-axis", 1, "phase portrait y-axis state index")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset configurations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(gainCmd, runCmd, liveCmd, descentCmd, tuneCmd, listCmd, plotCmd, analyzeCmd, exportCmd, scenarioCmd, presetsCmd)

	err = rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger builds a console logger writing to paths, stderr when none
// are given.
func newLogger(paths ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	if len(paths) > 0 {
		cfg.OutputPaths = paths
		cfg.ErrorOutputPaths = paths
	}
	return cfg.Build(zap.Fields(zap.String("app", "flightctl")))
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as group/name, e.g. pitch/gust")
	cmd.Flags().StringVar(&controller, "controller", "lqr", "controller: lqr, pid or none")
	cmd.Flags().Float64Var(&lqrKi, "lqr-ki", 0, "LQR integral trim gain")
	cmd.Flags().BoolVar(&discrete, "discrete", false, "synthesize a discrete-time gain")
	cmd.Flags().Float64Var(&kp, "kp", 0, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", 0, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", 0, "pid kd")
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator: euler, rk4 or verlet")
}
