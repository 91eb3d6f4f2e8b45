package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for propagation operations.
var (
	// ErrInvalidParameters indicates non-positive mass or an inertia tensor
	// that is not symmetric positive-definite.
	ErrInvalidParameters = errors.New("dynamo: invalid vehicle parameters")

	// ErrShape indicates a state vector of the wrong length.
	ErrShape = errors.New("dynamo: wrong vector length")

	// ErrInvalidStepArgument indicates a non-positive dt or a control vector
	// of the wrong length.
	ErrInvalidStepArgument = errors.New("dynamo: invalid step argument")

	// ErrDegenerateAttitude indicates a quaternion with zero or non-finite norm.
	ErrDegenerateAttitude = errors.New("dynamo: degenerate attitude quaternion")

	// ErrIntegrationFailure indicates a non-finite value during a step.
	ErrIntegrationFailure = errors.New("dynamo: integration failure (NaN or Inf detected)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// StepError wraps a step failure with propagation context.
type StepError struct {
	Step    uint64
	Time    float64
	Stage   string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) %s: %v", e.Step, e.Time, e.Stage, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// StageFailure reports a non-finite value produced by the named stage.
func StageFailure(stage string) error {
	return fmt.Errorf("%w: %s", ErrIntegrationFailure, stage)
}
