package body

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/dynamo"
)

// Flat state layout. This ordering is a stable contract:
//
//	[px py pz | vx vy vz | qx qy qz qw | wx wy wz]
const (
	Dim         = 13
	IdxPosition = 0
	IdxVelocity = 3
	IdxAttitude = 6
	IdxRates    = 10
)

// State is the kinematic state of a rigid body at one instant. Position and
// velocity are world frame, Attitude rotates body to world, Rates are body
// frame.
type State struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Attitude mgl64.Quat
	Rates    mgl64.Vec3
}

// NewState builds a State from arrays; attitude is scalar-last (x, y, z, w).
func NewState(position, velocity [3]float64, attitude [4]float64, rates [3]float64) State {
	return State{
		Position: mgl64.Vec3(position),
		Velocity: mgl64.Vec3(velocity),
		Attitude: mgl64.Quat{W: attitude[3], V: mgl64.Vec3{attitude[0], attitude[1], attitude[2]}},
		Rates:    mgl64.Vec3(rates),
	}
}

// Rest returns a state at the origin with identity attitude.
func Rest() State {
	return State{Attitude: mgl64.QuatIdent()}
}

// FromSlice decodes the flat layout. It does not normalize the attitude.
func FromSlice(v []float64) (State, error) {
	if len(v) != Dim {
		return State{}, fmt.Errorf("%w: state needs %d values, got %d", dynamo.ErrShape, Dim, len(v))
	}
	return Unpack(v), nil
}

// Unpack decodes x without checking its length; x must hold at least Dim values.
func Unpack(x []float64) State {
	_ = x[Dim-1]
	return State{
		Position: mgl64.Vec3{x[0], x[1], x[2]},
		Velocity: mgl64.Vec3{x[3], x[4], x[5]},
		Attitude: mgl64.Quat{W: x[9], V: mgl64.Vec3{x[6], x[7], x[8]}},
		Rates:    mgl64.Vec3{x[10], x[11], x[12]},
	}
}

// PackInto encodes s into dst using the flat layout.
func (s State) PackInto(dst []float64) {
	_ = dst[Dim-1]
	dst[0], dst[1], dst[2] = s.Position[0], s.Position[1], s.Position[2]
	dst[3], dst[4], dst[5] = s.Velocity[0], s.Velocity[1], s.Velocity[2]
	dst[6], dst[7], dst[8], dst[9] = s.Attitude.V[0], s.Attitude.V[1], s.Attitude.V[2], s.Attitude.W
	dst[10], dst[11], dst[12] = s.Rates[0], s.Rates[1], s.Rates[2]
}

func (s State) Vector() [Dim]float64 {
	var v [Dim]float64
	s.PackInto(v[:])
	return v
}

// AttitudeXYZW returns the attitude in scalar-last order.
func (s State) AttitudeXYZW() [4]float64 {
	return [4]float64{s.Attitude.V[0], s.Attitude.V[1], s.Attitude.V[2], s.Attitude.W}
}
