package secop

import (
	"errors"
	"fmt"
)

// Class identifies a SECoP error class as surfaced in error replies.
type Class string

// SECoP error classes. The string values appear verbatim on the wire as the
// first element of an error report.
const (
	ClassNoSuchModule        Class = "NoSuchModule"
	ClassNoSuchParameter     Class = "NoSuchParameter"
	ClassNoSuchCommand       Class = "NoSuchCommand"
	ClassCommandFailed       Class = "CommandFailed"
	ClassCommandRunning      Class = "CommandRunning"
	ClassReadOnly            Class = "ReadOnly"
	ClassBadValue            Class = "BadValue"
	ClassCommunicationFailed Class = "CommunicationFailed"
	ClassIsBusy              Class = "IsBusy"
	ClassIsError             Class = "IsError"
	ClassDisabled            Class = "Disabled"
	ClassSyntaxError         Class = "SyntaxError"
	ClassInternalError       Class = "InternalError"
)

// Error is a protocol-level error carrying the SECoP error class reported to
// clients. All errors crossing the dispatcher boundary are either *Error or
// get wrapped into ClassInternalError before they reach the wire.
type Error struct {
	Class   Class
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// Errorf creates a new protocol error with the given class and formatted message.
func Errorf(class Class, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

// AsError converts any error into a protocol error. A non-protocol error is
// wrapped as ClassInternalError rather than propagated, so that an internal
// fault never terminates the client connection.
func AsError(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return &Error{Class: ClassInternalError, Message: err.Error()}
}

// Sentinel errors for conditions detected before a request reaches a module.
var (
	// ErrEmptyMessage indicates an empty input line.
	ErrEmptyMessage = errors.New("empty message")

	// ErrMissingSpecifier indicates a request that requires a specifier but
	// carries none.
	ErrMissingSpecifier = errors.New("request needs a specifier")

	// ErrUnexpectedData indicates a request that does not take a data part
	// but carries one.
	ErrUnexpectedData = errors.New("request does not take data")
)
