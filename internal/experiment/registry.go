package experiment

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/config"
	"github.com/san-kum/sixdof/internal/control"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/integrators"
	"github.com/san-kum/sixdof/internal/metrics"
	"github.com/san-kum/sixdof/internal/wind"
)

type (
	IntegratorFactory func() dynamo.Integrator
	WindFactory       func(config.WindConfig) (wind.Model, error)
	EffectorFactory   func(params map[string]float64) (forces.Effector, error)
	ControllerFactory func(cfg *config.Config) (dynamo.Controller, error)
)

type Registry struct {
	integrators map[string]IntegratorFactory
	winds       map[string]WindFactory
	effectors   map[string]EffectorFactory
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]IntegratorFactory),
		winds:       make(map[string]WindFactory),
		effectors:   make(map[string]EffectorFactory),
		controllers: make(map[string]ControllerFactory),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.winds["calm"] = func(config.WindConfig) (wind.Model, error) { return wind.Calm{}, nil }
	r.winds["constant"] = func(c config.WindConfig) (wind.Model, error) {
		return wind.NewConstant(vec3(c.Velocity)), nil
	}
	r.winds["gust"] = func(c config.WindConfig) (wind.Model, error) {
		if c.Period <= 0 {
			return nil, fmt.Errorf("%w: gust period must be positive", config.ErrInvalidConfig)
		}
		if vec3(c.Direction).Len() == 0 {
			return nil, fmt.Errorf("%w: gust direction must be non-zero", config.ErrInvalidConfig)
		}
		return wind.NewGust(vec3(c.Velocity), vec3(c.Direction), c.Amplitude, c.Period), nil
	}

	r.effectors["none"] = func(map[string]float64) (forces.Effector, error) { return forces.Null{}, nil }
	r.effectors["actuator"] = func(params map[string]float64) (forces.Effector, error) {
		a := forces.DefaultActuator()
		for _, name := range sortedKeys(params) {
			if err := a.SetParam(name, params[name]); err != nil {
				return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
			}
		}
		return a, nil
	}

	r.controllers["none"] = func(*config.Config) (dynamo.Controller, error) {
		return control.NewNone(forces.ControlDim), nil
	}
	r.controllers["constant"] = func(cfg *config.Config) (dynamo.Controller, error) {
		return control.NewConstant(cfg.ControlVector()), nil
	}
	r.controllers["pid"] = func(cfg *config.Config) (dynamo.Controller, error) {
		c := cfg.Controller
		if c.Index < 0 || c.Index >= body.Dim || c.Channel < 0 || c.Channel >= forces.ControlDim {
			return nil, fmt.Errorf("%w: pid index %d or channel %d out of range", config.ErrInvalidConfig, c.Index, c.Channel)
		}
		pid := control.NewPID(c.Kp, c.Ki, c.Kd, c.Target)
		pid.Index = c.Index
		pid.Channel = c.Channel
		pid.Limit = c.Limit
		copy(pid.Trim, cfg.ControlVector())
		return pid, nil
	}
	r.controllers["rate_damper"] = func(cfg *config.Config) (dynamo.Controller, error) {
		g := cfg.Controller.Gains
		if len(g) != 3 {
			g = []float64{1, 1, 1}
		}
		return control.NewRateDamper(g[0], g[1], g[2], cfg.ControlVector()[forces.Throttle]), nil
	}

	return r
}

func (r *Registry) RegisterIntegrator(name string, f IntegratorFactory) { r.integrators[name] = f }
func (r *Registry) RegisterWind(name string, f WindFactory)             { r.winds[name] = f }
func (r *Registry) RegisterEffector(name string, f EffectorFactory)     { r.effectors[name] = f }
func (r *Registry) RegisterController(name string, f ControllerFactory) { r.controllers[name] = f }

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	if name == "" {
		name = "rk4"
	}
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator: %s", config.ErrInvalidConfig, name)
	}
	return fn(), nil
}

func (r *Registry) GetWind(c config.WindConfig) (wind.Model, error) {
	name := c.Type
	if name == "" {
		name = "calm"
	}
	fn, ok := r.winds[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown wind model: %s", config.ErrInvalidConfig, name)
	}
	return fn(c)
}

func (r *Registry) GetEffector(c config.EffectorConfig) (forces.Effector, error) {
	name := c.Type
	if name == "" {
		name = "actuator"
	}
	fn, ok := r.effectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown effector: %s", config.ErrInvalidConfig, name)
	}
	return fn(c.Params)
}

func (r *Registry) GetController(cfg *config.Config) (dynamo.Controller, error) {
	name := cfg.Controller.Type
	if name == "" {
		name = "constant"
	}
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown controller: %s", config.ErrInvalidConfig, name)
	}
	return fn(cfg)
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListWinds() []string       { return sortedKeys(r.winds) }
func (r *Registry) ListEffectors() []string   { return sortedKeys(r.effectors) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

// DefaultMetrics returns fresh metric instances for one run.
func (r *Registry) DefaultMetrics(p *body.Params, gravity mgl64.Vec3) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewQuaternionDrift(),
		metrics.NewEnergy(p, gravity),
		metrics.NewStability(10.0),
		metrics.NewControlEffort(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func vec3(v []float64) mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}
