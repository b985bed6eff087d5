package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers never have to match on messages
type ErrorKind string

const (
	KindInvalidID        ErrorKind = "invalid_id"
	KindInvalidPayload   ErrorKind = "invalid_payload"
	KindUnavailable      ErrorKind = "unavailable"
	KindNotFound         ErrorKind = "not_found"
	KindOperationFailed  ErrorKind = "operation_failed"
	KindConnectionFailed ErrorKind = "connection_failed"
	KindRateLimited      ErrorKind = "rate_limited"
	KindInternal         ErrorKind = "internal"
)

// Error is the structured error returned by the store and the connection tester
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Common store errors, messages match the public API contract
var (
	ErrInvalidID      = NewError(KindInvalidID, "Invalid config ID format", nil)
	ErrUnavailable    = NewError(KindUnavailable, "Collection not found", nil)
	ErrConfigNotFound = NewError(KindNotFound, "Config not found", nil)
	ErrCreateFailed   = NewError(KindOperationFailed, "Configuration could not be created", nil)
	ErrUpdateFailed   = NewError(KindOperationFailed, "Configuration could not be updated", nil)
)
