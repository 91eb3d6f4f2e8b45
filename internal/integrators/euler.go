package integrators

import "github.com/san-kum/sixdof/internal/dynamo"

type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t, dt float64) error {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}

	dyn.Derive(e.dx, x, u, t)
	if !e.dx.IsValid() {
		return dynamo.StageFailure("euler derivative")
	}

	for i := range x {
		dst[i] = x[i] + dt*e.dx[i]
	}
	if !dst.IsValid() {
		return dynamo.StageFailure("euler update")
	}
	return nil
}
