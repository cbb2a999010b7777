package session

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is returned synchronously when an operation is not valid in
	// the current state or its argument is malformed. The transport is never
	// called.
	ErrRejected = errors.New("operation rejected")

	// ErrConnection is wrapped by every ConnectionError
	ErrConnection = errors.New("connection error")

	// ErrAbandoned completes a connect that was disconnected before it settled
	ErrAbandoned = errors.New("operation abandoned")
)

// ConnectionError reports a failed connect or disconnect call
type ConnectionError struct {
	Op      string
	Profile string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Profile == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Profile, e.Err)
}

// Unwrap exposes both ErrConnection and the transport's cause
func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}
