// Package control provides controllers that produce the vehicle's control
// vector [aileron, elevator, throttle, rudder] from its flat state.
//
// Controllers implement [dynamo.Controller]:
//
//   - [Constant]: a fixed vector that can be replaced between runs;
//     [NewNone] builds the all-zero form
//   - [PID]: one state component driving one control channel
//   - [LQR]: linear state feedback; [NewRateDamper] builds the body-rate form
//
// # Usage
//
//	pid := control.NewPID(2.0, 0.1, 0.0, 0.0) // Kp, Ki, Kd, setpoint
//	pid.Index, pid.Channel = body.IdxRates, forces.Aileron
//	sim := sim.New(prop, pid)
//
// Controllers implementing [dynamo.Configurable] support live tuning.
package control
