package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the services unwraps to one of these.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrStateConflict = errors.New("state conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrExternal      = errors.New("external failure")
)

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

func External(message string, cause error) error {
	return &Error{Kind: ErrExternal, Message: message, Cause: cause}
}

// StateError reports a transition that is illegal from the entity's current status.
type StateError struct {
	Entity  string
	Action  string
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %s", e.Action, e.Entity, e.Current)
}

func (e *StateError) Unwrap() error { return ErrStateConflict }

func StateConflict(entity, action string, current fmt.Stringer) error {
	return &StateError{Entity: entity, Action: action, Current: current.String()}
}

// Message returns the caller-facing text of a classified error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
