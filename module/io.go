package module

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// Communicator is the hardware-access collaborator: a request/reply exchange
// with an instrument over serial, TCP or anything else. Implementations live
// outside the protocol core; device code composes a Communicator field
// instead of inheriting IO behavior.
type Communicator interface {
	// Communicate sends a command and returns the instrument's reply.
	// It may block up to the communicator's own timeout.
	Communicate(command string) (string, error)
}

// CommFailed wraps a hardware communication failure into the protocol error
// class CommunicationFailed, unless it already carries a protocol class.
func CommFailed(err error) error {
	if err == nil {
		return nil
	}
	perr := secop.AsError(err)
	if perr.Class == secop.ClassInternalError {
		return secop.Errorf(secop.ClassCommunicationFailed, "%s", perr.Message)
	}
	return perr
}
