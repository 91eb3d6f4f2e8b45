// Package dynamo provides core simulation primitives for rigid-body propagation.
//
// The package defines the interfaces and types shared by the integration
// pipeline:
//
//   - [State]: flat vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [Controller]: feedback controller interface
//   - [Metric], [Observer]: run-time instrumentation hooks
//
// Systems write their derivative into a caller-owned buffer so an integrator
// can advance a state without allocating:
//
//	dyn := propagator.NewDynamics(params, forces, wind)
//	integ := integrators.NewRK4()
//	if err := integ.Step(dyn, next, x, u, t, dt); err != nil {
//	    // x is untouched
//	}
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use. Run
// independent vehicles with one integrator each.
package dynamo
