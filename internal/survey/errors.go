package survey

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrBlocked is returned by every mutating operation once the device has
	// been recognised as having already submitted.
	ErrBlocked = errors.New("survey: device already submitted")
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state or step.
	ErrInvalidTransition = errors.New("survey: invalid transition")
)

// ValidationError reports a missing or malformed answer on a question step.
// It never leaves the current step.
type ValidationError struct {
	Step   int
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step+1, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// PersistenceError wraps a store read or write failure.
type PersistenceError struct {
	Op  string // "get_device", "put_survey", "put_device"
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or network timeout,
// i.e. a retry by the user has a reasonable chance of succeeding.
func (e *PersistenceError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IdentifierResolutionError is recorded when the device id could not be
// resolved. The flow continues without duplicate protection.
type IdentifierResolutionError struct {
	Err error
}

func (e *IdentifierResolutionError) Error() string {
	return "resolve device id: " + e.Err.Error()
}

func (e *IdentifierResolutionError) Unwrap() error { return e.Err }
