package control

import (
	"fmt"

	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
)

// Constant returns the same control vector every step. The returned slice is
// shared; callers that keep it must copy.
type Constant struct {
	U dynamo.Control
}

func NewConstant(u []float64) *Constant {
	return &Constant{U: dynamo.Control(u).Clone()}
}

// NewNone commands zero on every channel: no thrust and no commanded
// moment. A non-positive dim selects the actuator's channel count.
func NewNone(dim int) *Constant {
	if dim <= 0 {
		dim = forces.ControlDim
	}
	return &Constant{U: make(dynamo.Control, dim)}
}

// SetControl replaces the stored vector; the length may not change.
func (c *Constant) SetControl(u []float64) error {
	if len(u) != len(c.U) {
		return fmt.Errorf("%w: control needs %d values, got %d", dynamo.ErrInvalidStepArgument, len(c.U), len(u))
	}
	copy(c.U, u)
	return nil
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return c.U
}
