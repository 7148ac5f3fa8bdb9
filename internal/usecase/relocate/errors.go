package relocate

import (
	"errors"
	"fmt"
)

// ErrorType classifies worker channel failures.
type ErrorType int

const (
	// ErrTypeTransport covers process spawn and pipe failures. These are
	// retryable because a fresh worker process may succeed.
	ErrTypeTransport ErrorType = iota
	// ErrTypeProtocol covers malformed or mismatched frames.
	ErrTypeProtocol
	// ErrTypeWorker covers failures reported by the worker itself.
	ErrTypeWorker
	// ErrTypeCanceled covers context cancellation.
	ErrTypeCanceled
)

// String returns a human-readable representation of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeTransport:
		return "transport error"
	case ErrTypeProtocol:
		return "protocol error"
	case ErrTypeWorker:
		return "worker error"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "unknown error"
	}
}

// Error is a worker channel failure with relocation context.
type Error struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is comparisons by error type.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Type == other.Type
}

// IsRetryable reports whether the operation may be retried.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewTransportError creates a retryable error for subprocess and pipe
// failures.
func NewTransportError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeTransport,
		Message:   message,
		Retryable: true,
		Err:       err,
	}
}

// NewProtocolError creates an error for malformed worker responses.
func NewProtocolError(message string) *Error {
	return &Error{
		Type:    ErrTypeProtocol,
		Message: message,
	}
}

// NewWorkerError creates an error for failures the worker reported.
func NewWorkerError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeWorker,
		Message: message,
		Err:     err,
	}
}

// NewCanceledError wraps a context cancellation.
func NewCanceledError(err error) *Error {
	return &Error{
		Type:    ErrTypeCanceled,
		Message: "operation canceled",
		Err:     err,
	}
}
