// Package automation runs scripted scenarios, parameter sweeps and Monte
// Carlo trials on top of experiment assembly.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/config"
	"github.com/san-kum/sixdof/internal/control"
	"github.com/san-kum/sixdof/internal/experiment"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/sim"
)

// Scenario defines a scripted sequence of segments flown by one vehicle.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Config      *config.Config `yaml:"config"`
	Segments    []Segment      `yaml:"segments"`
}

// Segment holds a constant control for Duration seconds. A non-empty Reset
// overwrites the full 13-element state before the segment starts.
type Segment struct {
	Name     string    `yaml:"name"`
	Dt       float64   `yaml:"dt"`
	Duration float64   `yaml:"duration"`
	Control  []float64 `yaml:"control"`
	Reset    []float64 `yaml:"reset"`
}

type SegmentResult struct {
	Name   string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Segments) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no segments", config.ErrInvalidConfig, scenario.Name)
	}
	return &scenario, nil
}

// BaseConfig resolves the vehicle configuration: an inline config wins over
// a preset, and the default config is used when neither is given.
func (s *Scenario) BaseConfig() (*config.Config, error) {
	switch {
	case s.Config != nil:
		return s.Config, nil
	case s.Preset != "":
		cfg := config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", config.ErrInvalidConfig, s.Preset)
		}
		return cfg, nil
	default:
		return config.DefaultConfig(), nil
	}
}

// RunScenario executes all segments in order on a single propagator, so
// state and clock carry over between segments unless a segment resets them.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *slog.Logger) ([]SegmentResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base, err := scenario.BaseConfig()
	if err != nil {
		return nil, err
	}

	exp, err := experiment.Build(base, experiment.WithRegistry(registry), experiment.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s setup: %w", scenario.Name, err)
	}
	prop := exp.Propagator()

	results := make([]SegmentResult, 0, len(scenario.Segments))
	for i, seg := range scenario.Segments {
		logger.Info("running segment",
			"scenario", scenario.Name,
			"segment", seg.Name,
			"index", i+1,
			"of", len(scenario.Segments),
		)

		if len(seg.Reset) > 0 {
			if err := prop.SetStateVector(seg.Reset); err != nil {
				return results, fmt.Errorf("segment %d reset: %w", i+1, err)
			}
		}

		u := base.ControlVector()
		if len(seg.Control) > 0 {
			if len(seg.Control) != forces.ControlDim {
				return results, fmt.Errorf("segment %d: %w: control needs %d values", i+1, config.ErrInvalidConfig, forces.ControlDim)
			}
			copy(u, seg.Control)
		}

		cfg := sim.Config{Dt: seg.Dt, Duration: seg.Duration}
		if cfg.Dt == 0 {
			cfg.Dt = base.Dt
		}

		s := sim.New(prop, control.NewConstant(u), sim.WithLogger(logger))
		result, err := s.Run(ctx, cfg)
		if err != nil {
			results = append(results, SegmentResult{Name: seg.Name, Result: result})
			return results, fmt.Errorf("segment %d run: %w", i+1, err)
		}
		results = append(results, SegmentResult{Name: seg.Name, Result: result})
	}

	return results, nil
}

// ParameterSweep runs one simulation per value of an actuator parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState [body.Dim]float64
	Metrics    map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", config.ErrInvalidConfig)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := *sweep.Base
		cfg.Effector.Params = make(map[string]float64, len(sweep.Base.Effector.Params)+1)
		for k, v := range sweep.Base.Effector.Params {
			cfg.Effector.Params[k] = v
		}
		cfg.Effector.Params[sweep.ParamName] = paramVal

		exp, err := experiment.Build(&cfg, experiment.WithRegistry(registry))
		if err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			FinalState: result.Final(),
			Metrics:    result.Metrics,
		})
	}

	return results, nil
}

// MonteCarloConfig perturbs initial velocity and body rates uniformly by up
// to ±Perturbation and runs the trials concurrently.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Workers      int
	Seed         int64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	InitState  [body.Dim]float64
	FinalState [body.Dim]float64
	Stable     bool // Did simulation remain bounded?
}

// RunMonteCarlo executes multiple trials with random perturbations. Trials
// are reproducible for a given Seed regardless of Workers.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	perturb := func() []float64 {
		v := make([]float64, 3)
		for i := range v {
			v[i] = (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		}
		return v
	}

	trials := make([]*config.Config, cfg.NumTrials)
	for i := range trials {
		c := *cfg.Base
		c.Initial.Velocity = addVec(cfg.Base.Initial.Velocity, perturb())
		c.Initial.Rates = addVec(cfg.Base.Initial.Rates, perturb())
		trials[i] = &c
	}

	initial := make([][body.Dim]float64, cfg.NumTrials)
	build := func(i int) (*sim.Simulator, error) {
		exp, err := experiment.Build(trials[i], experiment.WithRegistry(registry))
		if err != nil {
			return nil, err
		}
		initial[i] = exp.Propagator().StateVector()
		return exp.GetSimulator(), nil
	}

	simCfg := sim.Config{Dt: cfg.Base.Dt, Duration: cfg.Base.Duration, SampleEvery: cfg.Base.SampleEvery}
	runs, err := sim.NewEnsemble(build, cfg.NumTrials, cfg.Workers).Run(ctx, simCfg)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial, r := range runs {
		final := r.Final()
		stable := true
		for _, v := range final {
			if v > 1e6 || v < -1e6 {
				stable = false
				break
			}
		}
		results = append(results, MonteCarloResult{
			TrialID:    trial,
			InitState:  initial[trial],
			FinalState: final,
			Stable:     stable,
		})
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func addVec(base, delta []float64) []float64 {
	out := make([]float64, 3)
	copy(out, base)
	for i := range out {
		out[i] += delta[i]
	}
	return out
}
