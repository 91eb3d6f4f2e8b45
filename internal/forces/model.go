// Package forces accumulates the net force and moment acting on the vehicle.
//
// Net force is expressed in the world frame, net moment in the body frame.
// Models are pure functions of their inputs and never clamp non-finite
// results.
package forces

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/attitude"
	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
)

// StandardGravity points down the world z axis.
var StandardGravity = mgl64.Vec3{0, 0, -9.80665}

type Model interface {
	ForcesMoments(p *body.Params, s body.State, wind mgl64.Vec3, u dynamo.Control) (force, moment mgl64.Vec3)
}

// ControlChanneler is implemented by models and effectors that read a fixed
// number of control channels.
type ControlChanneler interface {
	ControlDim() int
}

// ControlChannels returns the channel count declared by v, or 0 when v does
// not declare one.
func ControlChannels(v any) int {
	if c, ok := v.(ControlChanneler); ok {
		return c.ControlDim()
	}
	return 0
}

// Composite adds uniform gravity to the output of a control Effector.
type Composite struct {
	Gravity  mgl64.Vec3
	Effector Effector
}

func New(gravity mgl64.Vec3, effector Effector) *Composite {
	if effector == nil {
		effector = Null{}
	}
	return &Composite{Gravity: gravity, Effector: effector}
}

// Default uses standard gravity and the default actuator map.
func Default() *Composite {
	return New(StandardGravity, DefaultActuator())
}

// ControlDim reports the effector's channel count.
func (c *Composite) ControlDim() int { return ControlChannels(c.Effector) }

func (c *Composite) ForcesMoments(p *body.Params, s body.State, wind mgl64.Vec3, u dynamo.Control) (mgl64.Vec3, mgl64.Vec3) {
	airspeed := attitude.RotateInverse(s.Attitude, s.Velocity.Sub(wind))

	fBody, moment := c.Effector.Effect(airspeed, s.Rates, u)

	force := c.Gravity.Mul(p.Mass()).Add(attitude.Rotate(s.Attitude, fBody))
	return force, moment
}
