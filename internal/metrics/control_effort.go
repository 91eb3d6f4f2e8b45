package metrics

import (
	"math"

	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
)

// momentChannels are the control channels that command body moments.
var momentChannels = [...]int{forces.Aileron, forces.Elevator, forces.Rudder}

// ControlEffort accumulates the mean absolute command per actuator channel.
// Value is the mean moment effort, |aileron| + |elevator| + |rudder| per
// sample; throttle is tracked separately since it commands thrust and sits
// at a nonzero trim in steady flight.
type ControlEffort struct {
	name    string
	sums    [forces.ControlDim]float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

// Observe ignores vectors that do not carry every actuator channel.
func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) < forces.ControlDim {
		return
	}
	for i := range c.sums {
		c.sums[i] += math.Abs(u[i])
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	total := 0.0
	for _, ch := range momentChannels {
		total += c.Channel(ch)
	}
	return total
}

// Channel returns the mean |u| of one channel, indexed like forces.Throttle.
func (c *ControlEffort) Channel(ch int) float64 {
	if c.samples == 0 || ch < 0 || ch >= len(c.sums) {
		return 0
	}
	return c.sums[ch] / float64(c.samples)
}

// Throttle returns the mean throttle command.
func (c *ControlEffort) Throttle() float64 { return c.Channel(forces.Throttle) }

func (c *ControlEffort) Reset() {
	c.sums = [forces.ControlDim]float64{}
	c.samples = 0
}
