package control

import (
	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
)

// LQR applies u = Trim - K (x - Target). Rows of K are control channels,
// columns are state components; missing entries count as zero.
type LQR struct {
	K      [][]float64
	Target dynamo.State
	Trim   dynamo.Control
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	copy(u, l.Trim)
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

// NewRateDamper drives body rates to zero: roll rate through the aileron,
// pitch rate through the elevator and yaw rate through the rudder. Throttle
// holds throttle.
func NewRateDamper(roll, pitch, yaw, throttle float64) *LQR {
	k := make([][]float64, forces.ControlDim)
	for i := range k {
		k[i] = make([]float64, body.Dim)
	}
	k[forces.Aileron][body.IdxRates] = roll
	k[forces.Elevator][body.IdxRates+1] = pitch
	k[forces.Rudder][body.IdxRates+2] = yaw

	l := NewLQR(k, nil)
	l.Trim = make(dynamo.Control, forces.ControlDim)
	l.Trim[forces.Throttle] = throttle
	return l
}
