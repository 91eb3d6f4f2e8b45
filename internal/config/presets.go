package config

import (
	"sort"
)

// Presets build fresh configurations, so callers may modify the result.
var Presets = map[string]func() *Config{
	// The reference benchmark: coast at 11 m/s with throttle 0.2.
	"benchmark": func() *Config {
		cfg := DefaultConfig()
		cfg.Duration = 5.0
		return cfg
	},
	"glide": func() *Config {
		cfg := DefaultConfig()
		cfg.Initial.Position = []float64{0, 0, 100}
		cfg.Initial.Velocity = []float64{20, 0, 0}
		cfg.Initial.Euler = []float64{0.05, -0.05, 0}
		cfg.Controller = ControllerConfig{Type: "rate_damper", Gains: []float64{2, 2, 1}}
		cfg.Control = []float64{0, 0, 0.3, 0}
		cfg.Duration = 30.0
		return cfg
	},
	// Torque-free spin near the intermediate axis.
	"tumble": func() *Config {
		cfg := DefaultConfig()
		cfg.Vehicle.Inertia = [][]float64{{1, 0, 0}, {0, 2, 0}, {0, 0, 3}}
		cfg.Initial.Velocity = nil
		cfg.Initial.Rates = []float64{0.01, 3, 0.01}
		cfg.Gravity = []float64{0, 0, 0}
		cfg.Effector = EffectorConfig{Type: "none"}
		cfg.Controller = ControllerConfig{Type: "none"}
		cfg.Control = nil
		cfg.Dt = 0.001
		cfg.Duration = 20.0
		cfg.SampleEvery = 10
		return cfg
	},
	"freefall": func() *Config {
		cfg := DefaultConfig()
		cfg.Initial.Position = []float64{0, 0, 100}
		cfg.Initial.Velocity = nil
		cfg.Effector = EffectorConfig{Type: "none"}
		cfg.Controller = ControllerConfig{Type: "none"}
		cfg.Control = nil
		cfg.Duration = 4.0
		return cfg
	},
	"gusty": func() *Config {
		cfg := DefaultConfig()
		cfg.Initial.Position = []float64{0, 0, 50}
		cfg.Wind = WindConfig{
			Type:      "gust",
			Velocity:  []float64{2, 0, 0},
			Direction: []float64{0, 1, 0},
			Amplitude: 4,
			Period:    3,
		}
		cfg.Controller = ControllerConfig{Type: "rate_damper", Gains: []float64{1, 1, 1}}
		cfg.Control = []float64{0, 0, 0.4, 0}
		cfg.Duration = 20.0
		return cfg
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
