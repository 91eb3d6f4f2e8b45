package integrators

import "github.com/san-kum/sixdof/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta rule. Stage buffers are
// reused across steps, so a warmed-up RK4 does not allocate.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t, dt float64) error {
	n := len(x)
	r.ensureScratch(n)

	dyn.Derive(r.k1, x, u, t)
	if !r.k1.IsValid() {
		return dynamo.StageFailure("rk4 k1")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	dyn.Derive(r.k2, r.scratch, u, t+dt*0.5)
	if !r.k2.IsValid() {
		return dynamo.StageFailure("rk4 k2")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	dyn.Derive(r.k3, r.scratch, u, t+dt*0.5)
	if !r.k3.IsValid() {
		return dynamo.StageFailure("rk4 k3")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	dyn.Derive(r.k4, r.scratch, u, t+dt)
	if !r.k4.IsValid() {
		return dynamo.StageFailure("rk4 k4")
	}

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		dst[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	if !dst.IsValid() {
		return dynamo.StageFailure("rk4 update")
	}
	return nil
}
