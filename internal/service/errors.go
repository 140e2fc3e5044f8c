package service

import (
	"errors"
)

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrInvalid         = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error is a domain error carrying a message that is safe to show to the user.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind so callers can use errors.Is(err, ErrForbidden).
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ErrAlreadyRated is returned when an IP address rates the same post twice.
var ErrAlreadyRated = newError(ErrInvalid, "You have already rated this post")

var (
	errLoginRequired = newError(ErrUnauthenticated, "Please login to continue")
	errPostNotFound  = newError(ErrNotFound, "Post not found")
)

// UserMessage returns the user-facing message of a domain error, or "" for any other error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
