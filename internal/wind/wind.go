// Package wind supplies ambient air velocity samples to the propagator.
//
// A Model is sampled any number of times per step (once per integrator
// stage) and advanced exactly once after each committed step. Models that
// keep internal time are not safe for concurrent use; share one between
// propagators only with external serialization.
package wind

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Model interface {
	// Sample returns the world-frame wind velocity at position. It must not
	// change the model's state.
	Sample(position mgl64.Vec3) mgl64.Vec3
	// Advance moves the model's internal clock forward by dt.
	Advance(dt float64)
}

// Calm is the zero-wind model used when none is supplied.
type Calm struct{}

func (Calm) Sample(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{} }
func (Calm) Advance(float64)              {}

// Constant is a uniform, steady wind.
type Constant struct {
	Velocity mgl64.Vec3
}

func NewConstant(velocity mgl64.Vec3) *Constant {
	return &Constant{Velocity: velocity}
}

func (c *Constant) Sample(mgl64.Vec3) mgl64.Vec3 { return c.Velocity }
func (c *Constant) Advance(float64)              {}

// Gust is a mean wind plus a sinusoidal component along Direction.
type Gust struct {
	Mean      mgl64.Vec3
	Direction mgl64.Vec3
	Amplitude float64
	Period    float64
	elapsed   float64
}

func NewGust(mean, direction mgl64.Vec3, amplitude, period float64) *Gust {
	if l := direction.Len(); l > 0 {
		direction = direction.Mul(1 / l)
	}
	return &Gust{
		Mean:      mean,
		Direction: direction,
		Amplitude: amplitude,
		Period:    period,
	}
}

func (g *Gust) Sample(mgl64.Vec3) mgl64.Vec3 {
	if g.Period <= 0 {
		return g.Mean
	}
	phase := 2 * math.Pi * g.elapsed / g.Period
	return g.Mean.Add(g.Direction.Mul(g.Amplitude * math.Sin(phase)))
}

func (g *Gust) Advance(dt float64) { g.elapsed += dt }

// Elapsed returns the simulated time the gust has been advanced by.
func (g *Gust) Elapsed() float64 { return g.elapsed }

func (g *Gust) Reset() { g.elapsed = 0 }
