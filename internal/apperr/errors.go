// Package apperr defines the error kinds shared by use cases and transports.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrAlreadyInStock        = errors.New("already in stock")
	ErrDuplicateSubscription = errors.New("duplicate subscription")
	ErrCacheUnavailable      = errors.New("cache unavailable")
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
)

// Error pairs a kind with the stable message returned to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) *Error {
	return New(ErrNotFound, "%s not found", entity)
}

func InvalidQuantity(format string, args ...interface{}) *Error {
	return New(ErrInvalidQuantity, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(ErrValidation, format, args...)
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
