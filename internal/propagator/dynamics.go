package propagator

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/attitude"
	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/wind"
)

// Dynamics is the coupled 13-state rigid-body right-hand side:
//
//	ṗ = v
//	v̇ = F / m
//	q̇ = ½ q ⊗ (0, ω)
//	ω̇ = I⁻¹ (M − ω × Iω)
type Dynamics struct {
	params     *body.Params
	forces     forces.Model
	wind       wind.Model
	controlDim int
}

func NewDynamics(params *body.Params, fm forces.Model, w wind.Model) *Dynamics {
	if fm == nil {
		fm = forces.Default()
	}
	if w == nil {
		w = wind.Calm{}
	}
	return &Dynamics{
		params:     params,
		forces:     fm,
		wind:       w,
		controlDim: forces.ControlDim,
	}
}

func (d *Dynamics) StateDim() int   { return body.Dim }
func (d *Dynamics) ControlDim() int { return d.controlDim }

func (d *Dynamics) Derive(dx, x dynamo.State, u dynamo.Control, t float64) {
	s := body.Unpack(x)

	w := d.wind.Sample(s.Position)
	force, moment := d.forces.ForcesMoments(d.params, s, w, u)

	acc := force.Mul(1 / d.params.Mass())

	omega := s.Rates
	h := d.params.Inertia().Mul3x1(omega)
	alpha := d.params.InertiaInverse().Mul3x1(moment.Sub(omega.Cross(h)))

	qdot := attitude.Derivative(s.Attitude, omega)

	body.State{
		Position: s.Velocity,
		Velocity: acc,
		Attitude: qdot,
		Rates:    alpha,
	}.PackInto(dx)
}

// Acceleration returns the translational and angular accelerations at s.
func (d *Dynamics) Acceleration(s body.State, u dynamo.Control) (linear, angular mgl64.Vec3) {
	var x, dx [body.Dim]float64
	s.PackInto(x[:])
	d.Derive(dx[:], x[:], u, 0)
	return mgl64.Vec3{dx[3], dx[4], dx[5]}, mgl64.Vec3{dx[10], dx[11], dx[12]}
}
