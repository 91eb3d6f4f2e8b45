package attitude

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/sixdof/internal/dynamo"
)

func TestDerivative_Identity(t *testing.T) {
	q := mgl64.QuatIdent()
	omega := mgl64.Vec3{0.2, -0.4, 0.6}

	dq := Derivative(q, omega)

	if dq.W != 0 {
		t.Errorf("expected zero scalar part, got %f", dq.W)
	}
	if !vecNear(dq.V, omega.Mul(0.5), 1e-15) {
		t.Errorf("expected ω/2, got %v", dq.V)
	}
}

func TestDerivative_PreservesNormToFirstOrder(t *testing.T) {
	q := FromEuler(0.3, -0.2, 1.1)
	dq := Derivative(q, mgl64.Vec3{1, 2, 3})

	dot := q.W*dq.W + q.V.Dot(dq.V)
	if math.Abs(dot) > 1e-12 {
		t.Errorf("q·dq should vanish for unit q, got %e", dot)
	}
}

func TestDerivative_ConstantRateRotation(t *testing.T) {
	// Integrate a constant yaw rate with small Euler steps and compare with
	// the closed form.
	q := mgl64.QuatIdent()
	omega := mgl64.Vec3{0, 0, 1}
	dt := 1e-4
	for i := 0; i < 10000; i++ {
		q = q.Add(Derivative(q, omega).Scale(dt))
		var err error
		if q, err = Normalize(q); err != nil {
			t.Fatal(err)
		}
	}

	want := mgl64.QuatRotate(1.0, mgl64.Vec3{0, 0, 1})
	if math.Abs(q.W-want.W) > 1e-4 || math.Abs(q.V[2]-want.V[2]) > 1e-4 {
		t.Errorf("got %v, want %v", q, want)
	}
}

func TestNormalize(t *testing.T) {
	q, err := Normalize(mgl64.Quat{W: 2, V: mgl64.Vec3{0, 0, 0}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if q.W != 1 {
		t.Errorf("expected W=1, got %f", q.W)
	}

	q, err = Normalize(mgl64.Quat{W: 1, V: mgl64.Vec3{1, 1, 1}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if math.Abs(Norm(q)-1) > 1e-15 {
		t.Errorf("norm after Normalize = %v", Norm(q))
	}
}

func TestNormalize_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		q    mgl64.Quat
	}{
		{"zero", mgl64.Quat{}},
		{"NaN", mgl64.Quat{W: math.NaN()}},
		{"Inf", mgl64.Quat{W: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.q); !errors.Is(err, dynamo.ErrDegenerateAttitude) {
				t.Errorf("expected ErrDegenerateAttitude, got %v", err)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	q := FromEuler(0, 0, math.Pi/2)

	got := Rotate(q, mgl64.Vec3{1, 0, 0})
	if !vecNear(got, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("yaw 90°: body x should map to world y, got %v", got)
	}

	back := RotateInverse(q, got)
	if !vecNear(back, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("RotateInverse did not undo Rotate: %v", back)
	}

	scaled := Rotate(q.Scale(3), mgl64.Vec3{1, 0, 0})
	if !vecNear(scaled, got, 1e-12) {
		t.Errorf("Rotate should ignore quaternion scale, got %v", scaled)
	}
}

func TestEulerRoundTrip(t *testing.T) {
	tests := [][3]float64{
		{0, 0, 0},
		{0.1, 0.2, 0.3},
		{-1.0, 0.5, 2.5},
		{3.0, -1.2, -3.0},
	}

	for _, tt := range tests {
		r, p, y := ToEuler(FromEuler(tt[0], tt[1], tt[2]))
		if math.Abs(r-tt[0]) > 1e-12 || math.Abs(p-tt[1]) > 1e-12 || math.Abs(y-tt[2]) > 1e-12 {
			t.Errorf("round trip %v -> (%f, %f, %f)", tt, r, p, y)
		}
	}
}

// vecNear compares component-wise with an absolute tolerance, so exact
// zeros and rounding residues compare equal.
func vecNear(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
