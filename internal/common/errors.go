package common

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. The string value doubles as the
// machine-readable "reason" in HTTP error bodies.
type Kind string

const (
	KindValidation      Kind = "validation_failed"
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindCapacity        Kind = "capacity_exceeded"
	KindAlreadyJoined   Kind = "already_joined"
	KindNotJoined       Kind = "not_joined"
	KindWindowClosed    Kind = "window_closed"
	KindConflict        Kind = "conflict"
	KindPermission      Kind = "permission_denied"
	KindUnauthenticated Kind = "unauthenticated"
	KindBanned          Kind = "banned"
)

// Error is the structured failure returned by every engine operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against the bare sentinels below, so that
// errors.Is(err, common.ErrCapacity) holds for any capacity failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrCapacity        = &Error{Kind: KindCapacity}
	ErrAlreadyJoined   = &Error{Kind: KindAlreadyJoined}
	ErrNotJoined       = &Error{Kind: KindNotJoined}
	ErrWindowClosed    = &Error{Kind: KindWindowClosed}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrPermission      = &Error{Kind: KindPermission}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrBanned          = &Error{Kind: KindBanned}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to an underlying cause.
func Wrap(kind Kind, err error, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
