package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
	ErrInvalidRating     = fmt.Errorf("%w: rating must be an integer between 1 and 5", ErrValidation)
	ErrIDExhaustion      = errors.New("display id generation exhausted")
	ErrConflict          = errors.New("conflict")
	ErrStaleState        = errors.New("book state changed concurrently")
)

// TransitionError reports a lifecycle precondition that did not hold.
type TransitionError struct {
	Action string
	Status string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s book in status %s: %s", e.Action, e.Status, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func Transition(action, status, reason string) error {
	return &TransitionError{Action: action, Status: status, Reason: reason}
}

// ConflictError is a uniqueness violation reported by the database.
type ConflictError struct {
	Constraint string
	Message    string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict on " + e.Constraint
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func Conflict(constraint, message string) error {
	return &ConflictError{Constraint: constraint, Message: message}
}

// IsConflictOn reports whether err is a uniqueness violation of constraint.
func IsConflictOn(err error, constraint string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Constraint == constraint
}

func NotAuthorized(reason string) error {
	return errors.Wrap(ErrNotAuthorized, reason)
}

func Validation(reason string) error {
	return errors.Wrap(ErrValidation, reason)
}

func NotFound(what string) error {
	return errors.Wrap(ErrNotFound, what)
}
