package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
)

func restState() dynamo.State {
	v := body.Rest().Vector()
	return dynamo.State(v[:])
}

func TestNone(t *testing.T) {
	ctrl := NewNone(4)
	u := ctrl.Compute(restState(), 0.0)

	if len(u) != 4 {
		t.Errorf("expected 4 controls, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}

	if got := len(NewNone(0).Compute(restState(), 0)); got != forces.ControlDim {
		t.Errorf("default dimension %d, want %d", got, forces.ControlDim)
	}
}

func TestConstant(t *testing.T) {
	in := []float64{0, 0, 0.2, 0}
	ctrl := NewConstant(in)
	in[2] = 99

	u := ctrl.Compute(restState(), 0)
	if u[2] != 0.2 {
		t.Errorf("constant aliased its input: %v", u)
	}

	if err := ctrl.SetControl([]float64{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if u := ctrl.Compute(restState(), 1); u[3] != 4 {
		t.Errorf("SetControl not applied: %v", u)
	}

	if err := ctrl.SetControl([]float64{1}); !errors.Is(err, dynamo.ErrInvalidStepArgument) {
		t.Errorf("short control accepted: %v", err)
	}
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	ctrl.Index = body.IdxRates
	ctrl.Channel = forces.Aileron

	x := restState()
	x[body.IdxRates] = 1.0

	u := ctrl.Compute(x, 0.0)
	if len(u) != forces.ControlDim {
		t.Fatalf("expected %d controls, got %d", forces.ControlDim, len(u))
	}
	if u[forces.Aileron] >= 0 {
		t.Error("PID should output negative control for positive error")
	}
	for _, ch := range []int{forces.Elevator, forces.Throttle, forces.Rudder} {
		if u[ch] != 0 {
			t.Errorf("channel %d should hold trim, got %f", ch, u[ch])
		}
	}
}

func TestPID_TrimAndLimit(t *testing.T) {
	ctrl := NewPID(100, 0, 0, 0)
	ctrl.Index = body.IdxRates + 1
	ctrl.Channel = forces.Elevator
	ctrl.Limit = 0.5
	ctrl.Trim[forces.Throttle] = 0.3

	x := restState()
	x[body.IdxRates+1] = -2

	u := ctrl.Compute(x, 0)
	if u[forces.Elevator] != 0.5 {
		t.Errorf("elevator %f, want saturation at 0.5", u[forces.Elevator])
	}
	if u[forces.Throttle] != 0.3 {
		t.Errorf("throttle %f, want trim 0.3", u[forces.Throttle])
	}
}

func TestPID_IntegralAccumulates(t *testing.T) {
	ctrl := NewPID(0, 1, 0, 1)
	ctrl.Index = 0
	ctrl.Channel = forces.Throttle

	x := restState()
	ctrl.Compute(x, 0)
	ctrl.Compute(x, 0.5)
	u := ctrl.Compute(x, 1.0)
	if math.Abs(u[forces.Throttle]-1.0) > 1e-12 {
		t.Errorf("integral output %f, want 1", u[forces.Throttle])
	}

	ctrl.Reset()
	if u := ctrl.Compute(x, 2.0); u[forces.Throttle] != 0 {
		t.Errorf("after reset first output should be proportional only, got %f", u[forces.Throttle])
	}
}

func TestPID_Params(t *testing.T) {
	var _ dynamo.Configurable = NewPID(1, 0, 0, 0)

	ctrl := NewPID(1, 0, 0, 0)
	if err := ctrl.SetParam("Kd", 3); err != nil {
		t.Fatal(err)
	}
	if ctrl.GetParams()["Kd"] != 3 {
		t.Error("Kd not updated")
	}
	if err := ctrl.SetParam("bogus", 1); err == nil {
		t.Error("unknown parameter accepted")
	}
}

func TestLQR(t *testing.T) {
	k := [][]float64{{1.0, 2.0}}
	target := dynamo.State{0.0, 0.0}
	ctrl := NewLQR(k, target)

	u := ctrl.Compute(dynamo.State{0.0, 0.0}, 0.0)
	if u[0] != 0 {
		t.Errorf("expected zero control at target, got %f", u[0])
	}

	u = ctrl.Compute(dynamo.State{1.0, 0.0}, 0.0)
	if u[0] == 0 {
		t.Error("expected non-zero control away from target")
	}
}

func TestRateDamper(t *testing.T) {
	ctrl := NewRateDamper(1, 2, 3, 0.4)

	x := restState()
	x[body.IdxRates] = 0.1
	x[body.IdxRates+1] = -0.2
	x[body.IdxRates+2] = 0.3
	x[body.IdxPosition] = 1000

	u := ctrl.Compute(x, 0)
	want := []float64{-0.1, 0.4, 0.4, -0.9}
	for i := range want {
		if math.Abs(u[i]-want[i]) > 1e-12 {
			t.Errorf("u[%d] = %f, want %f", i, u[i], want[i])
		}
	}
}
