package sim

import (
	"time"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
)

// Vehicle is the stepping surface the simulator drives;
// *propagator.Propagator satisfies it.
type Vehicle interface {
	Step(dt float64, control []float64) error
	StateVector() [body.Dim]float64
	Time() float64
}

type Config struct {
	Dt       float64
	Duration float64
	// SampleEvery keeps every Nth committed state in the Result. Zero
	// means every step.
	SampleEvery int
}

func DefaultConfig() Config {
	return Config{
		Dt:          0.01,
		Duration:    10.0,
		SampleEvery: 1,
	}
}

type Result struct {
	States     [][body.Dim]float64
	Controls   []dynamo.Control
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    time.Duration
}

// Final returns the last recorded state.
func (r *Result) Final() [body.Dim]float64 {
	if len(r.States) == 0 {
		return [body.Dim]float64{}
	}
	return r.States[len(r.States)-1]
}
