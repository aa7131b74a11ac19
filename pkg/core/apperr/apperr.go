// Package apperr defines the failure kinds every action can resolve to.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an action failure
type Kind int

const (
	KindStore Kind = iota
	KindAuth
	KindForbidden
	KindNotFound
	KindValidation
	KindNoPendingAssignments
	KindInvalidState
	KindAlreadyAssigned
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "AuthError"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	case KindNoPendingAssignments:
		return "NoPendingAssignments"
	case KindInvalidState:
		return "InvalidState"
	case KindAlreadyAssigned:
		return "AlreadyAssigned"
	default:
		return "StoreError"
	}
}

// GenericMessage is shown to callers for store failures; the cause is only logged
const GenericMessage = "Something went wrong. Please try again."

// Error is an expected action failure carrying a user-facing message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrAuth                 = &Error{Kind: KindAuth, Message: "You must be signed in"}
	ErrForbidden            = &Error{Kind: KindForbidden, Message: "You do not have permission to do that"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "Not found"}
	ErrValidation           = &Error{Kind: KindValidation, Message: "Invalid input"}
	ErrNoPendingAssignments = &Error{Kind: KindNoPendingAssignments, Message: "No pending assignments to send invitations for"}
	ErrInvalidState         = &Error{Kind: KindInvalidState, Message: "This invitation can no longer be changed"}
	ErrAlreadyAssigned      = &Error{Kind: KindAlreadyAssigned, Message: "This person is already assigned to the position"}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Auth(format string, args ...any) *Error { return newf(KindAuth, format, args...) }
func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }
func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

// Store wraps an underlying data-store failure
func Store(err error, operation string) *Error {
	return &Error{Kind: KindStore, Message: operation, Err: err}
}

// KindOf returns the kind of err; errors that are not *Error count as store failures
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Message returns the message safe to show a caller.
// Store failures never leak their cause.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindStore {
		return GenericMessage
	}
	return e.Message
}
