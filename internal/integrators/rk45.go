package integrators

import (
	"math"

	"github.com/san-kum/sixdof/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
const (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince 5(4) pair. Step always advances by the given
// dt using the fifth-order solution; StepAdaptive additionally suggests the
// next step size from the embedded error estimate.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k       [7]dynamo.State
	scratch dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.scratch) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK45) Step(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t, dt float64) error {
	return r.stages(dyn, dst, x, u, t, dt)
}

func (r *RK45) stages(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t, dt float64) error {
	n := len(x)
	r.ensureScratch(n)
	k1, k2, k3, k4, k5, k6 := r.k[0], r.k[1], r.k[2], r.k[3], r.k[4], r.k[5]

	dyn.Derive(k1, x, u, t)
	if !k1.IsValid() {
		return dynamo.StageFailure("rk45 k1")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*b21*k1[i]
	}
	dyn.Derive(k2, r.scratch, u, t+a2*dt)
	if !k2.IsValid() {
		return dynamo.StageFailure("rk45 k2")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	dyn.Derive(k3, r.scratch, u, t+a3*dt)
	if !k3.IsValid() {
		return dynamo.StageFailure("rk45 k3")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	dyn.Derive(k4, r.scratch, u, t+a4*dt)
	if !k4.IsValid() {
		return dynamo.StageFailure("rk45 k4")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	dyn.Derive(k5, r.scratch, u, t+a5*dt)
	if !k5.IsValid() {
		return dynamo.StageFailure("rk45 k5")
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	dyn.Derive(k6, r.scratch, u, t+dt)
	if !k6.IsValid() {
		return dynamo.StageFailure("rk45 k6")
	}

	for i := 0; i < n; i++ {
		dst[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	if !dst.IsValid() {
		return dynamo.StageFailure("rk45 update")
	}
	return nil
}

// StepAdaptive advances by dt and returns a suggested next step size for the
// relative tolerance tol.
func (r *RK45) StepAdaptive(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t, dt, tol float64) (float64, error) {
	if err := r.stages(dyn, dst, x, u, t, dt); err != nil {
		return dt, err
	}

	n := len(x)
	k1, k3, k4, k5, k6, k7 := r.k[0], r.k[2], r.k[3], r.k[4], r.k[5], r.k[6]
	dyn.Derive(k7, dst, u, t+dt)
	if !k7.IsValid() {
		return dt, dynamo.StageFailure("rk45 k7")
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		dtNew = dt * scale
	} else {
		if errRatio > 0 {
			scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			dtNew = dt * scale
		} else {
			dtNew = dt * r.maxScale
		}
	}

	return dtNew, nil
}
