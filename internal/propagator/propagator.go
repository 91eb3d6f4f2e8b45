// Package propagator advances a rigid vehicle's 13-element state by fixed
// time steps.
//
// A step is transactional: the next state is computed into a scratch
// buffer, the attitude is renormalized, and only then is it committed by
// swapping buffers. The wind model is advanced after the commit. Any failure
// leaves the previously committed state untouched and the propagator usable.
//
// Conventions: world z is up, the attitude quaternion rotates body to world
// and is laid out scalar-last, angular rates are body frame. The default
// integration rule is classical RK4 and stays fixed for the propagator's
// lifetime.
package propagator

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/attitude"
	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/integrators"
	"github.com/san-kum/sixdof/internal/wind"
)

type Option func(*Propagator)

// WithWind sets the wind model. A nil model selects calm air. The model is
// held by reference; the caller may keep and inspect it.
func WithWind(w wind.Model) Option {
	return func(p *Propagator) {
		if w == nil {
			w = wind.Calm{}
		}
		p.wind = w
	}
}

func WithForceModel(m forces.Model) Option {
	return func(p *Propagator) {
		if m != nil {
			p.forces = m
		}
	}
}

func WithIntegrator(integ dynamo.Integrator) Option {
	return func(p *Propagator) {
		if integ != nil {
			p.integ = integ
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Propagator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithControlDim changes the agreed control vector length (default 4). It
// must match the force model when that model declares its channel count.
func WithControlDim(n int) Option {
	return func(p *Propagator) {
		p.controlDim = n
	}
}

type Propagator struct {
	params     *body.Params
	forces     forces.Model
	wind       wind.Model
	integ      dynamo.Integrator
	logger     *slog.Logger
	controlDim int

	dyn     *Dynamics
	x, next dynamo.State
	t       float64
	steps   uint64
}

// New constructs a propagator from raw mass properties and initial
// conditions. inertia is row-major, attitude is (x, y, z, w) and is
// normalized once here.
func New(mass float64, inertia [3][3]float64, position, velocity [3]float64, attitude [4]float64, rates [3]float64, opts ...Option) (*Propagator, error) {
	params, err := body.NewParams(mass, inertia)
	if err != nil {
		return nil, err
	}
	return NewWithParams(params, body.NewState(position, velocity, attitude, rates), opts...)
}

func NewWithParams(params *body.Params, initial body.State, opts ...Option) (*Propagator, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil vehicle parameters", dynamo.ErrInvalidParameters)
	}

	q, err := attitude.Normalize(initial.Attitude)
	if err != nil {
		return nil, fmt.Errorf("%w: initial attitude: %w", dynamo.ErrInvalidParameters, err)
	}
	initial.Attitude = q

	p := &Propagator{
		params:     params,
		forces:     forces.Default(),
		wind:       wind.Calm{},
		integ:      integrators.NewRK4(),
		logger:     slog.New(slog.DiscardHandler),
		controlDim: forces.ControlDim,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.controlDim < 0 {
		return nil, fmt.Errorf("%w: control dimension %d", dynamo.ErrInvalidParameters, p.controlDim)
	}
	if n := forces.ControlChannels(p.forces); n > 0 && n != p.controlDim {
		return nil, fmt.Errorf("%w: force model consumes %d control channels, propagator agreed %d",
			dynamo.ErrInvalidParameters, n, p.controlDim)
	}

	p.dyn = NewDynamics(params, p.forces, p.wind)
	p.dyn.controlDim = p.controlDim

	p.x = make(dynamo.State, body.Dim)
	p.next = make(dynamo.State, body.Dim)
	initial.PackInto(p.x)

	return p, nil
}

// Step advances the committed state by dt under control.
func (p *Propagator) Step(dt float64, control []float64) error {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return fmt.Errorf("%w: dt must be positive and finite, got %v", dynamo.ErrInvalidStepArgument, dt)
	}
	if len(control) != p.controlDim {
		return fmt.Errorf("%w: control needs %d values, got %d", dynamo.ErrInvalidStepArgument, p.controlDim, len(control))
	}

	// Rotations inside the force model would turn a degenerate committed
	// attitude into NaN before the normalize stage could classify it.
	if err := p.checkAttitude(p.x); err != nil {
		return p.fail("normalize", err)
	}

	if err := p.integ.Step(p.dyn, p.next, p.x, control, p.t, dt); err != nil {
		return p.fail("integrate", err)
	}

	a := p.next[body.IdxAttitude : body.IdxAttitude+4]
	q, err := attitude.Normalize(mgl64.Quat{W: a[3], V: mgl64.Vec3{a[0], a[1], a[2]}})
	if err != nil {
		return p.fail("normalize", fmt.Errorf("%w: %w", dynamo.ErrIntegrationFailure, err))
	}
	a[0], a[1], a[2], a[3] = q.V[0], q.V[1], q.V[2], q.W

	if !p.next.IsValid() {
		return p.fail("validate", dynamo.ErrIntegrationFailure)
	}

	p.x, p.next = p.next, p.x
	p.t += dt
	p.steps++

	p.wind.Advance(dt)
	return nil
}

// checkAttitude reports a zero or non-finite quaternion norm in x. The
// error unwraps to both ErrDegenerateAttitude and ErrIntegrationFailure.
func (p *Propagator) checkAttitude(x dynamo.State) error {
	a := x[body.IdxAttitude : body.IdxAttitude+4]
	if _, err := attitude.Normalize(mgl64.Quat{W: a[3], V: mgl64.Vec3{a[0], a[1], a[2]}}); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrIntegrationFailure, err)
	}
	return nil
}

func (p *Propagator) fail(stage string, err error) error {
	stepErr := &dynamo.StepError{Step: p.steps, Time: p.t, Stage: stage, Wrapped: err}
	p.logger.Debug("step rejected",
		"step", p.steps,
		"time", p.t,
		"stage", stage,
		"error", err,
	)
	return stepErr
}

// StateVector returns the committed state in the flat layout
// [px py pz vx vy vz qx qy qz qw wx wy wz].
func (p *Propagator) StateVector() [body.Dim]float64 {
	var v [body.Dim]float64
	copy(v[:], p.x)
	return v
}

// SetStateVector overwrites the committed state. The attitude is stored as
// given; a non-unit quaternion is renormalized by the next step.
func (p *Propagator) SetStateVector(v []float64) error {
	if len(v) != body.Dim {
		return fmt.Errorf("%w: state needs %d values, got %d", dynamo.ErrShape, body.Dim, len(v))
	}
	copy(p.x, v)
	return nil
}

func (p *Propagator) State() body.State { return body.Unpack(p.x) }

func (p *Propagator) Position() [3]float64 {
	return [3]float64{p.x[0], p.x[1], p.x[2]}
}

func (p *Propagator) Velocity() [3]float64 {
	return [3]float64{p.x[3], p.x[4], p.x[5]}
}

// Attitude returns the quaternion as (x, y, z, w).
func (p *Propagator) Attitude() [4]float64 {
	return [4]float64{p.x[6], p.x[7], p.x[8], p.x[9]}
}

func (p *Propagator) Rates() [3]float64 {
	return [3]float64{p.x[10], p.x[11], p.x[12]}
}

// Time is the simulated time accumulated by committed steps.
func (p *Propagator) Time() float64 { return p.t }

func (p *Propagator) Steps() uint64 { return p.steps }

func (p *Propagator) Params() *body.Params { return p.params }

func (p *Propagator) ControlDim() int { return p.controlDim }

func (p *Propagator) Wind() wind.Model { return p.wind }

func (p *Propagator) Dynamics() *Dynamics { return p.dyn }
