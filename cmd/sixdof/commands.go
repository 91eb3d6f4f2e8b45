package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/sixdof/internal/automation"
	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/config"
	"github.com/san-kum/sixdof/internal/experiment"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/optim"
	"github.com/san-kum/sixdof/internal/propagator"
	"github.com/san-kum/sixdof/internal/sim"
)

// loadConfig resolves --config or --preset and applies explicitly set flags
// on top. File values win over flag defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (see 'sixdof presets')", preset)
		}
	default:
		cfg = config.DefaultConfig()
		cfg.Dt = dt
		cfg.Duration = duration
		cfg.Integrator = integrator
		cfg.Controller.Type = controller
		cfg.Control = []float64{0, 0, throttle, 0}
		cfg.SampleEvery = sampleEvery
		return cfg, cfg.Validate()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller.Type = controller
	}
	if flags.Changed("throttle") {
		u := cfg.ControlVector()
		u[forces.Throttle] = throttle
		cfg.Control = u
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if !flags.Changed("log-level") && cfg.Log.Level != "" {
		logLevel = cfg.Log.Level
	}
	if !flags.Changed("log-format") && cfg.Log.Format != "" {
		logFormat = cfg.Log.Format
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	rec, err := startMetrics(cmd.Context(), logger)
	if err != nil {
		return err
	}

	exp, err := experiment.Build(cfg, experiment.WithLogger(logger), experiment.WithRecorder(rec))
	if err != nil {
		return err
	}

	result, err := exp.Run(cmd.Context())
	if result != nil {
		logger.Info("run complete",
			"steps", result.StepsTaken,
			"sim_time", exp.Propagator().Time(),
			"elapsed", result.Elapsed,
		)
		printSummary(exp.Propagator(), result)
	}
	return err
}

func printSummary(p *propagator.Propagator, result *sim.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	pos, vel, att, rates := p.Position(), p.Velocity(), p.Attitude(), p.Rates()
	fmt.Fprintf(w, "time\t%.4f s\n", p.Time())
	fmt.Fprintf(w, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(w, "position\t%.6f %.6f %.6f\n", pos[0], pos[1], pos[2])
	fmt.Fprintf(w, "velocity\t%.6f %.6f %.6f\n", vel[0], vel[1], vel[2])
	fmt.Fprintf(w, "attitude\t%.6f %.6f %.6f %.6f\n", att[0], att[1], att[2], att[3])
	fmt.Fprintf(w, "rates\t%.6f %.6f %.6f\n", rates[0], rates[1], rates[2])
	if n := len(result.Controls); n > 0 {
		lin, ang := p.Dynamics().Acceleration(p.State(), result.Controls[n-1])
		fmt.Fprintf(w, "acceleration\t%.6f %.6f %.6f\n", lin[0], lin[1], lin[2])
		fmt.Fprintf(w, "angular accel\t%.6f %.6f %.6f\n", ang[0], ang[1], ang[2])
	}
	for _, name := range sortedMetricNames(result.Metrics) {
		fmt.Fprintf(w, "%s\t%.6g\n", name, result.Metrics[name])
	}
	w.Flush()
}

// runBench repeats the reference loop: reset to 11 m/s forward, then step
// for the configured duration, timing each repetition.
func runBench(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	registry := experiment.NewRegistry()

	integ, err := registry.GetIntegrator(integrator)
	if err != nil {
		return err
	}

	identity := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	p, err := propagator.New(1, identity, [3]float64{}, [3]float64{config.DefaultSpeed, 0, 0}, [4]float64{0, 0, 0, 1}, [3]float64{},
		propagator.WithIntegrator(integ), propagator.WithLogger(logger))
	if err != nil {
		return err
	}
	initial := p.StateVector()
	u := []float64{0, 0, throttle, 0}

	if samples < 1 || dt <= 0 || benchTime <= 0 {
		return fmt.Errorf("samples, dt and time must be positive")
	}

	times := make([]time.Duration, samples)
	steps := 0
	for i := range times {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if err := p.SetStateVector(initial[:]); err != nil {
			return err
		}
		start := time.Now()
		steps = 0
		for t := 0.0; t < benchTime; t += dt {
			if err := p.Step(dt, u); err != nil {
				return err
			}
			steps++
		}
		times[i] = time.Since(start)
		logger.Debug("bench sample", "sample", i, "elapsed", times[i])
	}

	var total time.Duration
	for _, d := range times {
		total += d
	}
	mean := total / time.Duration(samples)
	final := p.StateVector()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tSAMPLES\tMEAN\tSTEPS/SEC")
	fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n", integrator, steps, samples, mean, float64(steps)/mean.Seconds())
	w.Flush()
	fmt.Printf("final state: %v\n", final)
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators (dt=%.4f, duration=%.1fs)\n\n", base.Dt, base.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tFINAL_X\tFINAL_Z\tQUAT_DRIFT\tTIME_MS")

	for _, name := range args {
		cfg := *base
		cfg.Integrator = name

		exp, err := experiment.Build(&cfg)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(cmd.Context())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		final := result.Final()
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.2e\t%.2f\n",
			name, final[body.IdxPosition], final[body.IdxPosition+2],
			result.Metrics["quaternion_drift"], float64(elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger := newLogger()

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEGMENT\tSTEPS\tFINAL_X\tFINAL_Y\tFINAL_Z")
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		final := r.Result.Final()
		fmt.Fprintf(w, "%s\t%d\t%.6f\t%.6f\t%.6f\n", r.Name, r.Result.StepsTaken, final[0], final[1], final[2])
	}
	w.Flush()
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	start := time.Now()
	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Workers:      workers,
		Seed:         seed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)
	logger.Info("monte carlo complete",
		"trials", len(results),
		"stable", stable,
		"unstable", unstable,
		"elapsed", time.Since(start),
	)
	fmt.Printf("trials: %d  stable: %d  unstable: %d\n", len(results), stable, unstable)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_VX\tFINAL_Z\tENERGY\n", paramName)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.6f\t%.6f\t%.6g\n",
			r.ParamValue, r.FinalState[body.IdxVelocity], r.FinalState[body.IdxPosition+2], r.Metrics["energy"])
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Controller.Index = pidIndex
	cfg.Controller.Channel = pidChannel
	logger := newLogger()

	g, err := optim.NewGridSearch([]string{"kp", "ki", "kd"}, [][]float64{kpValues, kiValues, kdValues})
	if err != nil {
		return err
	}
	logger.Info("tuning", "points", g.Points(), "metric", tuneMetric)

	best, val, err := g.Search(cmd.Context(), optim.PIDBuilder(cfg, experiment.NewRegistry()), tuneMetric)
	if err != nil {
		return err
	}
	fmt.Printf("best: kp=%.4g ki=%.4g kd=%.4g %s=%.6g\n", best["kp"], best["ki"], best["kd"], tuneMetric, val)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Printf("  %-10s  integrator=%s controller=%s duration=%.1fs\n",
			name, cfg.Integrator, cfg.Controller.Type, cfg.Duration)
	}

	registry := experiment.NewRegistry()
	fmt.Println()
	fmt.Printf("integrators: %s\n", strings.Join(registry.ListIntegrators(), ", "))
	fmt.Printf("winds:       %s\n", strings.Join(registry.ListWinds(), ", "))
	fmt.Printf("effectors:   %s\n", strings.Join(registry.ListEffectors(), ", "))
	fmt.Printf("controllers: %s\n", strings.Join(registry.ListControllers(), ", "))
	return nil
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
