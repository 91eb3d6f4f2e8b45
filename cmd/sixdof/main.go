package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/sixdof/internal/logging"
	"github.com/san-kum/sixdof/internal/metrics"
)

var (
	dt          float64
	duration    float64
	integrator  string
	controller  string
	throttle    float64
	configFile  string
	preset      string
	sampleEvery int

	logLevel    string
	logFormat   string
	metricsAddr string

	samples   int
	benchTime float64

	trials    int
	perturb   float64
	workers   int
	seed      int64
	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int

	tuneMetric string
	kpValues   []float64
	kiValues   []float64
	kdValues   []float64
	pidIndex   int
	pidChannel int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sixdof",
		Short:         "six degree of freedom rigid body propagator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (e.g. :9090)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation from a config file or preset",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addVehicleFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 0, "record every Nth step")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time the reference benchmark loop",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&samples, "samples", 30, "number of timed repetitions")
	benchCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	benchCmd.Flags().Float64Var(&benchTime, "time", 10000.0, "simulated seconds per repetition")
	benchCmd.Flags().Float64Var(&throttle, "throttle", 0.2, "throttle command")
	benchCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addVehicleFlags(compareCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run perturbed trials concurrently",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addVehicleFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 16, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.5, "uniform perturbation of velocity and rates")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "concurrent trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep an actuator parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addVehicleFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&paramName, "param", "max_thrust", "actuator parameter")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 20, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search PID gains against a run metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addVehicleFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy", "metric to minimize")
	tuneCmd.Flags().Float64SliceVar(&kpValues, "kp", []float64{0, 1, 2, 4}, "proportional gains")
	tuneCmd.Flags().Float64SliceVar(&kiValues, "ki", []float64{0}, "integral gains")
	tuneCmd.Flags().Float64SliceVar(&kdValues, "kd", []float64{0}, "derivative gains")
	tuneCmd.Flags().IntVar(&pidIndex, "index", 10, "state index to regulate")
	tuneCmd.Flags().IntVar(&pidChannel, "channel", 0, "control channel to drive")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, benchCmd, compareCmd, scenarioCmd, monteCarloCmd, sweepCmd, tuneCmd, presetsCmd)
	return rootCmd
}

func addVehicleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	cmd.Flags().StringVar(&controller, "controller", "constant", "controller (none, constant, pid, rate_damper)")
	cmd.Flags().Float64Var(&throttle, "throttle", 0.2, "throttle command")
}

func newLogger() *slog.Logger {
	return logging.New(logging.Config{Level: logLevel, Format: logFormat})
}

// startMetrics registers a recorder and, when --metrics-addr is set, serves
// it until ctx ends. The returned recorder is always usable.
func startMetrics(ctx context.Context, logger *slog.Logger) (*metrics.Recorder, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, err
	}
	if metricsAddr == "" {
		return rec, nil
	}

	ln, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", ln.Addr().String())
	return rec, nil
}
