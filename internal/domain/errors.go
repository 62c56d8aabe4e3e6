package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the transport layer can choose a response.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindInvalidID
	KindUnauthorized
	KindConflict
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidID:
		return "invalid_id"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified failure with a client-safe message.
// Err holds the underlying cause and is never shown to clients.
type Error struct {
	Kind    ErrorKind
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

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation reports a rejected client payload.
func Validation(msg string) *Error { return newError(KindValidation, msg) }

// InvalidID reports a malformed identifier.
func InvalidID(msg string) *Error { return newError(KindInvalidID, msg) }

// Unauthorized reports missing or rejected credentials.
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }

// Conflict reports a uniqueness violation.
func Conflict(msg string) *Error { return newError(KindConflict, msg) }

// NotFound reports a missing or foreign record.
func NotFound(msg string) *Error { return newError(KindNotFound, msg) }

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not classified.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
