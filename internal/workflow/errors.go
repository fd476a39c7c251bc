package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition  = errors.New("illegal activity status transition")
	ErrValidation         = errors.New("validation failed")
	ErrBlocked            = errors.New("transition blocked")
	ErrIntentNotFound     = errors.New("transition intent not found")
	ErrIntentExpired      = errors.New("transition intent expired")
	ErrTransitionInFlight = errors.New("a transition is already being submitted for this lead")
	ErrCapabilityDenied   = errors.New("actor lacks the required capability")
)

// GenericFailureMessage is shown when the backend gave no usable message
const GenericFailureMessage = "action failed"

// ValidationError is a user input problem caught before any mutation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IllegalTransitionError reports an activity status edge outside the table
type IllegalTransitionError struct {
	From ActivityStatus
	To   ActivityStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal activity status transition %s -> %s", e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// BlockedError carries the gate decision that stopped a stage transition
type BlockedError struct {
	Decision Decision
}

func (e *BlockedError) Error() string {
	return e.Decision.Reason
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// MutationFailure is a rejected stage or status mutation
type MutationFailure struct {
	Message string
	Err     error
}

func (e *MutationFailure) Error() string {
	return e.Message
}

func (e *MutationFailure) Unwrap() error {
	return e.Err
}

// BackendMessage lets collaborator errors expose a user-presentable message
type BackendMessage interface {
	BackendMessage() string
}

func newMutationFailure(err error) *MutationFailure {
	msg := GenericFailureMessage
	var bm BackendMessage
	if errors.As(err, &bm) && bm.BackendMessage() != "" {
		msg = bm.BackendMessage()
	}
	return &MutationFailure{Message: msg, Err: err}
}
