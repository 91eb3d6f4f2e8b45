package forces

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/dynamo"
)

// Control channel order shared by the built-in effectors.
const (
	Aileron = iota
	Elevator
	Throttle
	Rudder
	ControlDim
)

// Effector maps relative airspeed (body frame, velocity minus wind), body
// rates and the control vector to a body-frame force and moment.
type Effector interface {
	Effect(airspeed, rates mgl64.Vec3, u dynamo.Control) (force, moment mgl64.Vec3)
}

// EffectorFunc adapts a function to the Effector interface.
type EffectorFunc func(airspeed, rates mgl64.Vec3, u dynamo.Control) (mgl64.Vec3, mgl64.Vec3)

func (f EffectorFunc) Effect(airspeed, rates mgl64.Vec3, u dynamo.Control) (mgl64.Vec3, mgl64.Vec3) {
	return f(airspeed, rates, u)
}

// Null produces no force or moment.
type Null struct{}

func (Null) Effect(mgl64.Vec3, mgl64.Vec3, dynamo.Control) (mgl64.Vec3, mgl64.Vec3) {
	return mgl64.Vec3{}, mgl64.Vec3{}
}

// Actuator is a linear control map. Throttle pushes along body +x; aileron,
// elevator and rudder command moments about body x, y and z. Drag opposes
// airspeed and RateDamping opposes body rates.
type Actuator struct {
	MaxThrust   float64
	RollGain    float64
	PitchGain   float64
	YawGain     float64
	Drag        float64
	RateDamping float64
}

func DefaultActuator() *Actuator {
	return &Actuator{
		MaxThrust:   10.0,
		RollGain:    0.5,
		PitchGain:   0.5,
		YawGain:     0.25,
		Drag:        0.1,
		RateDamping: 0.05,
	}
}

// ControlDim is the number of channels Effect reads. A shorter control
// vector produces no thrust and no commanded moment.
func (a *Actuator) ControlDim() int { return ControlDim }

func (a *Actuator) Effect(airspeed, rates mgl64.Vec3, u dynamo.Control) (mgl64.Vec3, mgl64.Vec3) {
	var ail, elev, thr, rud float64
	if len(u) >= ControlDim {
		ail, elev, thr, rud = u[Aileron], u[Elevator], u[Throttle], u[Rudder]
	}

	force := mgl64.Vec3{a.MaxThrust * thr, 0, 0}.Sub(airspeed.Mul(a.Drag))
	moment := mgl64.Vec3{a.RollGain * ail, a.PitchGain * elev, a.YawGain * rud}.Sub(rates.Mul(a.RateDamping))
	return force, moment
}

func (a *Actuator) GetParams() map[string]float64 {
	return map[string]float64{
		"max_thrust":   a.MaxThrust,
		"roll_gain":    a.RollGain,
		"pitch_gain":   a.PitchGain,
		"yaw_gain":     a.YawGain,
		"drag":         a.Drag,
		"rate_damping": a.RateDamping,
	}
}

func (a *Actuator) SetParam(name string, value float64) error {
	switch name {
	case "max_thrust":
		a.MaxThrust = value
	case "roll_gain":
		a.RollGain = value
	case "pitch_gain":
		a.PitchGain = value
	case "yaw_gain":
		a.YawGain = value
	case "drag":
		a.Drag = value
	case "rate_damping":
		a.RateDamping = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
