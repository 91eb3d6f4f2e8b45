// Package experiment assembles a runnable simulation from a configuration:
// vehicle parameters, force model, wind, integrator, controller and metrics.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/config"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/metrics"
	"github.com/san-kum/sixdof/internal/propagator"
	"github.com/san-kum/sixdof/internal/sim"
)

type Option func(*Experiment)

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) {
		if r != nil {
			e.registry = r
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Experiment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Experiment) { e.recorder = r }
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *slog.Logger
	recorder *metrics.Recorder

	propagator *propagator.Propagator
	simulator  *sim.Simulator
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build is New followed by Setup.
func Build(cfg *config.Config, opts ...Option) (*Experiment, error) {
	e := New(cfg, opts...)
	if err := e.Setup(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) Setup() error {
	if e.cfg == nil {
		return fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	params, err := body.NewParams(e.cfg.Vehicle.Mass, e.cfg.InertiaMatrix())
	if err != nil {
		return err
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	w, err := e.registry.GetWind(e.cfg.Wind)
	if err != nil {
		return err
	}
	eff, err := e.registry.GetEffector(e.cfg.Effector)
	if err != nil {
		return err
	}
	ctrl, err := e.registry.GetController(e.cfg)
	if err != nil {
		return err
	}

	gravity := e.cfg.GravityVector()
	prop, err := propagator.NewWithParams(params, e.cfg.InitialState(),
		propagator.WithIntegrator(integ),
		propagator.WithWind(w),
		propagator.WithForceModel(forces.New(gravity, eff)),
		propagator.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}

	simOpts := []sim.Option{sim.WithLogger(e.logger)}
	if e.recorder != nil {
		simOpts = append(simOpts, sim.WithRecorder(e.recorder))
	}
	s := sim.New(prop, ctrl, simOpts...)
	for _, m := range e.registry.DefaultMetrics(params, gravity) {
		s.AddMetric(m)
	}
	if e.recorder != nil {
		s.AddObserver(e.recorder)
	}

	e.propagator = prop
	e.simulator = s

	e.logger.Debug("experiment ready",
		"integrator", e.cfg.Integrator,
		"wind", e.cfg.Wind.Type,
		"effector", e.cfg.Effector.Type,
		"controller", e.cfg.Controller.Type,
	)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration,
		SampleEvery: e.cfg.SampleEvery,
	}
}

func (e *Experiment) Propagator() *propagator.Propagator { return e.propagator }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Config() *config.Config { return e.cfg }
