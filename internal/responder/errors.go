package responder

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start while a listener is active
var ErrAlreadyRunning = errors.New("responder already running")

// ErrNoRunner is returned by Start when no runner has been set
var ErrNoRunner = errors.New("responder has no listener configured")

// StartupError reports that the discovery socket could not be opened after
// all retry attempts.
type StartupError struct {
	Port     int
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to open discovery socket on port %d after %d attempts: %v", e.Port, e.Attempts, e.Err)
}

// Unwrap returns the last socket error
func (e *StartupError) Unwrap() error {
	return e.Err
}
