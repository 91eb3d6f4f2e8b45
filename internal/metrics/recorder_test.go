package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatal(err)
	}

	r.StepCommitted()
	r.StepCommitted()
	r.StepFailed(dynamo.StageFailure("rk4 k1"))
	r.ObserveRun(20 * time.Millisecond)

	x := stateOf(body.Rest())
	x[body.IdxAttitude+3] = 1.25
	r.OnStep(x, nil, 0)

	if got := testutil.ToFloat64(r.steps); got != 2 {
		t.Errorf("steps = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.failures.WithLabelValues(ReasonIntegration)); got != 1 {
		t.Errorf("integration failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.normError); got != 0.25 {
		t.Errorf("norm error = %v, want 0.25", got)
	}

	expected := `
# HELP sixdof_steps_total Total number of committed propagation steps.
# TYPE sixdof_steps_total counter
sixdof_steps_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "sixdof_steps_total"); err != nil {
		t.Error(err)
	}

	if n := testutil.CollectAndCount(r.runDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("second registration on the same registry should fail")
	}
}

func TestRecorder_Unregistered(t *testing.T) {
	r, err := NewRecorder(nil)
	if err != nil {
		t.Fatal(err)
	}
	r.StepCommitted()
	if got := testutil.ToFloat64(r.steps); got != 1 {
		t.Errorf("steps = %v, want 1", got)
	}
}
