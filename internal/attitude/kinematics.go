// Package attitude implements quaternion attitude kinematics.
//
// Quaternions rotate body-frame vectors into the world frame:
// v_world = q ⊗ v_body ⊗ q*. Angular rates are body frame.
package attitude

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/dynamo"
)

// Derivative returns dq/dt = ½ q ⊗ (0, ω) for a body-frame rate ω.
func Derivative(q mgl64.Quat, omega mgl64.Vec3) mgl64.Quat {
	return q.Mul(mgl64.Quat{W: 0, V: omega}).Scale(0.5)
}

// Norm returns the Euclidean norm of the four components.
func Norm(q mgl64.Quat) float64 {
	return math.Sqrt(q.W*q.W + q.V.Dot(q.V))
}

// Normalize divides q by its norm. A zero or non-finite norm cannot be
// recovered and is reported as ErrDegenerateAttitude.
func Normalize(q mgl64.Quat) (mgl64.Quat, error) {
	n := Norm(q)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return q, fmt.Errorf("%w: norm %v", dynamo.ErrDegenerateAttitude, n)
	}
	return q.Scale(1 / n), nil
}

// Rotate maps a body-frame vector into the world frame. q need not be unit;
// a locally normalized copy is used. A degenerate q yields NaN components.
func Rotate(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	return unit(q).Rotate(v)
}

// RotateInverse maps a world-frame vector into the body frame.
func RotateInverse(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	return unit(q).Conjugate().Rotate(v)
}

func unit(q mgl64.Quat) mgl64.Quat {
	return q.Scale(1 / Norm(q))
}

// FromEuler builds a quaternion from roll, pitch and yaw in radians using the
// aerospace Z-Y-X sequence: yaw about world z, then pitch, then roll.
func FromEuler(roll, pitch, yaw float64) mgl64.Quat {
	qz := mgl64.QuatRotate(yaw, mgl64.Vec3{0, 0, 1})
	qy := mgl64.QuatRotate(pitch, mgl64.Vec3{0, 1, 0})
	qx := mgl64.QuatRotate(roll, mgl64.Vec3{1, 0, 0})
	return qz.Mul(qy).Mul(qx)
}

// ToEuler returns the Z-Y-X roll, pitch and yaw of a unit quaternion.
func ToEuler(q mgl64.Quat) (roll, pitch, yaw float64) {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	switch {
	case sinp >= 1:
		pitch = math.Pi / 2
	case sinp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sinp)
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}
