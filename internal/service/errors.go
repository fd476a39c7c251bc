package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the actor may not perform an action
	ErrForbidden = errors.New("permission denied")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrStageConflict is returned when a lead changed between reading it and
	// applying a transition
	ErrStageConflict = errors.New("lead changed since it was read")
)

// BackendError carries a message fit to show to the user alongside the cause
type BackendError struct {
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// BackendMessage exposes Message to the transition orchestrator
func (e *BackendError) BackendMessage() string {
	return e.Message
}

var errStaleLead = &BackendError{
	Message: "Lead was updated by someone else. Refresh and try again.",
	Err:     ErrStageConflict,
}
