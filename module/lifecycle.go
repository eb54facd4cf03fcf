package module

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// State represents the lifecycle stage of a module. Transitions are
// one-directional and sequential; a module never re-enters an earlier state.
type State uint32

const (
	// CreatedState indicates the module exists but has not been initialized.
	CreatedState State = iota
	// EarlyInitState indicates the module passed its independent init phase.
	EarlyInitState
	// InitializedState indicates cross-module wiring is done.
	InitializedState
	// StartedState indicates initial values have been obtained.
	StartedState
	// PollingState is the steady state with the poller running.
	PollingState
)

// String returns the string representation of the lifecycle state.
func (s State) String() string {
	switch s {
	case CreatedState:
		return "created"
	case EarlyInitState:
		return "early-init"
	case InitializedState:
		return "initialized"
	case StartedState:
		return "started"
	case PollingState:
		return "polling"
	default:
		return "unknown"
	}
}

// advance moves the module to the next lifecycle state. The expected current
// state must match; lifecycle bugs are programming errors and fatal to
// server startup.
func (m *Module) advance(from, to State) error {
	if !m.state.CompareAndSwap(uint32(from), uint32(to)) {
		return secop.Errorf(secop.ClassInternalError,
			"module %s: invalid lifecycle transition to %s from %s", m.name, to, m.State())
	}
	m.log.Debug("lifecycle transition", "from", from.String(), "to", to.String())
	return nil
}

// State returns the current lifecycle state.
func (m *Module) State() State {
	return State(m.state.Load())
}
