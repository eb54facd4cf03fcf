// Package demo provides simulated sample environment devices.
//
// The devices approximate real hardware closely enough to exercise a full
// SEC node: a temperature controller that ramps towards its setpoint, a gas
// valve switch with a settling delay, and a noisy sensor. They are used by
// the demo node configuration and by the integration tests.
package demo
