package control

import (
	"fmt"
	"math"

	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
)

// PID regulates x[Index] toward Target by driving control channel Channel.
// The other channels hold Trim. A positive Limit saturates the PID output.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	Index   int
	Channel int
	Limit   float64
	Trim    dynamo.Control

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Trim:   make(dynamo.Control, forces.ControlDim),
		first:  true,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	u := p.Trim.Clone()
	if p.Index < 0 || p.Index >= len(x) || p.Channel < 0 || p.Channel >= len(u) {
		return u
	}

	err := p.Target - x[p.Index]

	var out float64
	dt := t - p.prevT
	switch {
	case p.first:
		p.first = false
		out = p.Kp * err
	case dt > 0:
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt
		out = p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	default:
		out = p.Kp * err
	}
	p.prevErr = err
	p.prevT = t

	if p.Limit > 0 {
		out = math.Max(-p.Limit, math.Min(p.Limit, out))
	}
	u[p.Channel] += out
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
		"Limit":  p.Limit,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	case "Limit":
		p.Limit = value
	default:
		return fmt.Errorf("pid: unknown parameter %q", name)
	}
	return nil
}
