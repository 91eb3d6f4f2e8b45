package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/sixdof/internal/attitude"
	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/logging"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultMass     = 1.0
	DefaultThrottle = 0.2
	DefaultSpeed    = 11.0
	DefaultKp       = 2.0
	DefaultKi       = 0.0
	DefaultKd       = 0.1
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Vehicle     VehicleConfig    `yaml:"vehicle"`
	Initial     InitialConfig    `yaml:"initial"`
	Gravity     []float64        `yaml:"gravity,omitempty"`
	Integrator  string           `yaml:"integrator"`
	Effector    EffectorConfig   `yaml:"effector"`
	Wind        WindConfig       `yaml:"wind"`
	Controller  ControllerConfig `yaml:"controller"`
	Control     []float64        `yaml:"control,omitempty"`
	Dt          float64          `yaml:"dt"`
	Duration    float64          `yaml:"duration"`
	SampleEvery int              `yaml:"sample_every,omitempty"`
	Log         logging.Config   `yaml:"log"`
}

type VehicleConfig struct {
	Mass    float64     `yaml:"mass"`
	Inertia [][]float64 `yaml:"inertia"`
}

// InitialConfig holds the initial kinematic state. Attitude is (x, y, z, w);
// alternatively Euler gives roll, pitch and yaw in radians.
type InitialConfig struct {
	Position []float64 `yaml:"position,omitempty"`
	Velocity []float64 `yaml:"velocity,omitempty"`
	Attitude []float64 `yaml:"attitude,omitempty"`
	Euler    []float64 `yaml:"euler,omitempty"`
	Rates    []float64 `yaml:"rates,omitempty"`
}

type EffectorConfig struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

type WindConfig struct {
	Type      string    `yaml:"type"`
	Velocity  []float64 `yaml:"velocity,omitempty"`
	Direction []float64 `yaml:"direction,omitempty"`
	Amplitude float64   `yaml:"amplitude,omitempty"`
	Period    float64   `yaml:"period,omitempty"`
}

type ControllerConfig struct {
	Type    string    `yaml:"type"`
	Kp      float64   `yaml:"kp,omitempty"`
	Ki      float64   `yaml:"ki,omitempty"`
	Kd      float64   `yaml:"kd,omitempty"`
	Target  float64   `yaml:"target,omitempty"`
	Index   int       `yaml:"index,omitempty"`
	Channel int       `yaml:"channel,omitempty"`
	Limit   float64   `yaml:"limit,omitempty"`
	Gains   []float64 `yaml:"gains,omitempty"`
}

func identityInertia() [][]float64 {
	return [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// DefaultConfig is the reference vehicle: unit mass and inertia, 11 m/s
// forward, throttle at 0.2.
func DefaultConfig() *Config {
	return &Config{
		Vehicle: VehicleConfig{
			Mass:    DefaultMass,
			Inertia: identityInertia(),
		},
		Initial: InitialConfig{
			Velocity: []float64{DefaultSpeed, 0, 0},
		},
		Integrator: "rk4",
		Effector:   EffectorConfig{Type: "actuator"},
		Wind:       WindConfig{Type: "calm"},
		Controller: ControllerConfig{
			Type: "constant",
			Kp:   DefaultKp,
			Ki:   DefaultKi,
			Kd:   DefaultKd,
		},
		Control:  []float64{0, 0, DefaultThrottle, 0},
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Log:      logging.Config{Level: "info", Format: "text"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks shapes and ranges. Physical validity of the inertia tensor
// is left to body.NewParams.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
		}
	}

	check(c.Dt > 0 && !math.IsInf(c.Dt, 0), "dt must be positive, got %v", c.Dt)
	check(c.Duration > 0 && !math.IsInf(c.Duration, 0), "duration must be positive, got %v", c.Duration)
	check(c.SampleEvery >= 0, "sample_every must not be negative")
	check(c.Vehicle.Mass > 0, "vehicle.mass must be positive, got %v", c.Vehicle.Mass)

	check(len(c.Vehicle.Inertia) == 3, "vehicle.inertia needs 3 rows")
	for i, row := range c.Vehicle.Inertia {
		check(len(row) == 3, "vehicle.inertia row %d needs 3 values", i)
	}

	checkLen := func(name string, v []float64, n int) {
		check(len(v) == 0 || len(v) == n, "%s needs %d values, got %d", name, n, len(v))
	}
	checkLen("initial.position", c.Initial.Position, 3)
	checkLen("initial.velocity", c.Initial.Velocity, 3)
	checkLen("initial.attitude", c.Initial.Attitude, 4)
	checkLen("initial.euler", c.Initial.Euler, 3)
	checkLen("initial.rates", c.Initial.Rates, 3)
	check(len(c.Initial.Attitude) == 0 || len(c.Initial.Euler) == 0, "initial.attitude and initial.euler are exclusive")
	checkLen("gravity", c.Gravity, 3)
	checkLen("wind.velocity", c.Wind.Velocity, 3)
	checkLen("wind.direction", c.Wind.Direction, 3)
	checkLen("control", c.Control, forces.ControlDim)
	checkLen("controller.gains", c.Controller.Gains, 3)

	return errors.Join(errs...)
}

// InertiaMatrix returns the inertia rows as a fixed array.
func (c *Config) InertiaMatrix() [3][3]float64 {
	var m [3][3]float64
	for i := 0; i < 3 && i < len(c.Vehicle.Inertia); i++ {
		copy(m[i][:], c.Vehicle.Inertia[i])
	}
	return m
}

// InitialState assembles the initial body.State. An absent attitude is the
// identity.
func (c *Config) InitialState() body.State {
	s := body.Rest()
	s.Position = vec3(c.Initial.Position)
	s.Velocity = vec3(c.Initial.Velocity)
	s.Rates = vec3(c.Initial.Rates)

	switch {
	case len(c.Initial.Attitude) == 4:
		a := c.Initial.Attitude
		s.Attitude = mgl64.Quat{W: a[3], V: mgl64.Vec3{a[0], a[1], a[2]}}
	case len(c.Initial.Euler) == 3:
		e := c.Initial.Euler
		s.Attitude = attitude.FromEuler(e[0], e[1], e[2])
	}
	return s
}

// GravityVector returns the configured gravity, or standard gravity when
// none is set.
func (c *Config) GravityVector() mgl64.Vec3 {
	if len(c.Gravity) != 3 {
		return forces.StandardGravity
	}
	return vec3(c.Gravity)
}

// ControlVector returns the configured control or zeros.
func (c *Config) ControlVector() []float64 {
	u := make([]float64, forces.ControlDim)
	copy(u, c.Control)
	return u
}

func vec3(v []float64) mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}
