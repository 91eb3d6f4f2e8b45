package metrics

import (
	"math"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
)

// QuaternionNormError is |‖q‖ − 1| for the attitude held in x.
func QuaternionNormError(x dynamo.State) float64 {
	a := x[body.IdxAttitude : body.IdxAttitude+4]
	n := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2] + a[3]*a[3])
	return math.Abs(n - 1)
}

// QuaternionDrift tracks the worst attitude norm error seen.
type QuaternionDrift struct {
	name string
	max  float64
}

func NewQuaternionDrift() *QuaternionDrift {
	return &QuaternionDrift{name: "quaternion_drift"}
}

func (q *QuaternionDrift) Name() string { return q.name }

func (q *QuaternionDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < body.Dim {
		return
	}
	q.max = math.Max(q.max, QuaternionNormError(x))
}

func (q *QuaternionDrift) Value() float64 { return q.max }

func (q *QuaternionDrift) Reset() { q.max = 0 }
