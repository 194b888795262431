package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already an *Error, its code, category and retryability carry over.
// Otherwise the result is an Internal error wrapping the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var agentErr *Error
	if errors.As(err, &agentErr) {
		wrapped := &Error{
			code:      agentErr.code,
			category:  agentErr.category,
			message:   message,
			cause:     err,
			retryable: agentErr.retryable,
			taskID:    agentErr.taskID,
			slackCode: agentErr.slackCode,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	// Context errors map to the timeout code.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// CodeOf extracts the error code from an error chain.
// Returns ErrCodeInternal for errors that are not *Error.
func CodeOf(err error) ErrorCode {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Code()
	}
	return ErrCodeInternal
}

// IsRetryable reports whether an error should be retried.
// Typed errors answer for themselves; anything unclassified is treated
// as retryable since it might be transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Retryable()
	}
	return true
}

// AsError extracts the typed error from a chain.
// Convenience wrapper so callers don't need both this package and the
// standard errors package imported.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

// IsCode reports whether any error in the chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Code() == code
	}
	return false
}
