package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

// System is an ODE right-hand side. Derive writes dX/dt into dx, which has
// the same length as x.
type System interface {
	Derive(dx, x State, u Control, t float64)
	StateDim() int
	ControlDim() int
}

// Integrator advances x by dt into dst. x is never modified; on error the
// contents of dst are unspecified.
type Integrator interface {
	Step(dyn System, dst, x State, u Control, t, dt float64) error
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, dst, x State, u Control, t, dt, tol float64) (float64, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type SimError struct {
	Time    float64
	Step    int
	Message string
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
