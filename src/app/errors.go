package app

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP boundary.
type Kind int

const (
	ServiceError Kind = iota
	AuthenticationFailed
	InvalidPassword
	NotFound
)

func (k Kind) String() string {
	switch k {
	case AuthenticationFailed:
		return "authentication failed"
	case InvalidPassword:
		return "invalid password"
	case NotFound:
		return "not found"
	default:
		return "service error"
	}
}

// Error carries a Kind, the message safe to show the caller and the cause.
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

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// serviceErr wraps an unexpected failure of the named stage.
func serviceErr(stage string, cause error) *Error {
	return newErr(ServiceError, stage, cause)
}

// KindOf reports the Kind of err, ServiceError for anything untyped.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ServiceError
}

// MessageOf returns the caller-facing message of a typed error.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
