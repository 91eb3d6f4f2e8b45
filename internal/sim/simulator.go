package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/control"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/metrics"
)

type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

type Simulator struct {
	vehicle    Vehicle
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	recorder   *metrics.Recorder
	logger     *slog.Logger
}

// New wires a vehicle to a controller. A nil controller commands zero.
func New(vehicle Vehicle, controller dynamo.Controller, opts ...Option) *Simulator {
	if controller == nil {
		controller = control.NewNone(0)
	}
	s := &Simulator{
		vehicle:    vehicle,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Vehicle() Vehicle { return s.vehicle }

// Run steps the vehicle for cfg.Duration. It stops at the first rejected
// step or cancellation and returns the partial result together with a
// dynamo.SimError.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := cfg.SampleEvery
	if every <= 0 {
		every = 1
	}
	capacity := steps/every + 2
	result := &Result{
		States:   make([][body.Dim]float64, 0, capacity),
		Controls: make([]dynamo.Control, 0, capacity),
		Times:    make([]float64, 0, capacity),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		if s.recorder != nil {
			s.recorder.ObserveRun(result.Elapsed)
		}
	}()

	x := s.vehicle.StateVector()
	result.States = append(result.States, x)
	result.Times = append(result.Times, s.vehicle.Time())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, dynamo.SimError{
				Time:    s.vehicle.Time(),
				Step:    i,
				Message: "canceled",
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		t := s.vehicle.Time()
		xs := dynamo.State(x[:])
		u := s.controller.Compute(xs, t)

		for _, m := range s.metrics {
			m.Observe(xs, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(xs, u, t)
		}

		if err := s.vehicle.Step(cfg.Dt, u); err != nil {
			if s.recorder != nil {
				s.recorder.StepFailed(err)
			}
			s.logger.Warn("simulation stopped",
				"step", i,
				"time", t,
				"reason", metrics.Reason(err),
				"error", err,
			)
			s.collect(result)
			return result, dynamo.SimError{Time: t, Step: i, Message: "step rejected", Wrapped: err}
		}
		if s.recorder != nil {
			s.recorder.StepCommitted()
		}

		x = s.vehicle.StateVector()
		result.StepsTaken++

		if result.StepsTaken%every == 0 || i == steps-1 {
			result.States = append(result.States, x)
			result.Controls = append(result.Controls, u.Clone())
			result.Times = append(result.Times, s.vehicle.Time())
		}
	}

	xs := dynamo.State(x[:])
	for _, obs := range s.observers {
		obs.OnStep(xs, nil, s.vehicle.Time())
	}
	s.collect(result)

	s.logger.Debug("simulation finished",
		"steps", result.StepsTaken,
		"sim_time", s.vehicle.Time(),
	)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidStepArgument, cfg.Dt)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidStepArgument, cfg.Duration)
	}
	if s.vehicle == nil {
		return fmt.Errorf("%w: no vehicle", dynamo.ErrInvalidParameters)
	}
	return nil
}
