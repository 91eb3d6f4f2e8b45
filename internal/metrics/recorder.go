package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/sixdof/internal/body"
	"github.com/san-kum/sixdof/internal/dynamo"
)

// Failure reasons used as the "reason" label.
const (
	ReasonInvalidArgument = "invalid_argument"
	ReasonDegenerate      = "degenerate_attitude"
	ReasonIntegration     = "integration_failure"
	ReasonCanceled        = "canceled"
	ReasonOther           = "other"
)

// Recorder exports propagation counters to Prometheus.
type Recorder struct {
	steps       prometheus.Counter
	failures    *prometheus.CounterVec
	runDuration prometheus.Histogram
	normError   prometheus.Gauge
}

// NewRecorder creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is convenient for tests.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sixdof_steps_total",
			Help: "Total number of committed propagation steps.",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sixdof_step_failures_total",
				Help: "Total number of rejected propagation steps.",
			},
			[]string{"reason"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sixdof_run_duration_seconds",
			Help:    "Wall-clock duration of simulation runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		normError: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sixdof_quaternion_norm_error",
			Help: "Absolute deviation of the attitude quaternion norm from one.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{r.steps, r.failures, r.runDuration, r.normError} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Recorder) StepCommitted() { r.steps.Inc() }

func (r *Recorder) StepFailed(err error) {
	r.failures.WithLabelValues(Reason(err)).Inc()
}

func (r *Recorder) ObserveRun(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
}

// OnStep implements dynamo.Observer.
func (r *Recorder) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < body.Dim {
		return
	}
	r.normError.Set(QuaternionNormError(x))
}

// Reason classifies a step error into a bounded label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, dynamo.ErrInvalidStepArgument):
		return ReasonInvalidArgument
	case errors.Is(err, dynamo.ErrDegenerateAttitude):
		return ReasonDegenerate
	case errors.Is(err, dynamo.ErrIntegrationFailure):
		return ReasonIntegration
	case errors.Is(err, dynamo.ErrContextCanceled):
		return ReasonCanceled
	default:
		return ReasonOther
	}
}
