package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
)

// MechanicalEnergy is ½m|v|² + ½ωᵀIω − m g·p for a uniform gravity field g.
func MechanicalEnergy(p *body.Params, gravity mgl64.Vec3, x dynamo.State) float64 {
	s := body.Unpack(x)
	m := p.Mass()
	translational := 0.5 * m * s.Velocity.Dot(s.Velocity)
	rotational := 0.5 * s.Rates.Dot(p.Inertia().Mul3x1(s.Rates))
	potential := -m * gravity.Dot(s.Position)
	return translational + rotational + potential
}

// Energy reports the mechanical energy of the last observed state.
type Energy struct {
	name    string
	params  *body.Params
	gravity mgl64.Vec3
	last    float64
}

func NewEnergy(p *body.Params, gravity mgl64.Vec3) *Energy {
	return &Energy{
		name:    "energy",
		params:  p,
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < body.Dim {
		return
	}
	e.last = MechanicalEnergy(e.params, e.gravity, x)
}

func (e *Energy) Value() float64 { return e.last }

func (e *Energy) Reset() { e.last = 0 }

// EnergyDrift is the largest relative departure from the first observed
// mechanical energy. It is only meaningful for unforced runs.
type EnergyDrift struct {
	name          string
	params        *body.Params
	gravity       mgl64.Vec3
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(p *body.Params, gravity mgl64.Vec3) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		params:  p,
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < body.Dim {
		return
	}
	energy := MechanicalEnergy(e.params, e.gravity, x)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
