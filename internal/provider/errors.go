package provider

import (
	"errors"
	"fmt"
)

// FailureKind categorizes a provider failure for backoff purposes.
type FailureKind string

const (
	FailureAuth      FailureKind = "auth"
	FailureRateLimit FailureKind = "rate_limit"
	FailureTransient FailureKind = "transient"
	FailureNotFound  FailureKind = "not_found"
)

// Error is a categorized error from a provider operation.
type Error struct {
	Kind     FailureKind
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches provider errors by failure kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrAuth      = &Error{Kind: FailureAuth, Message: "authentication failed"}
	ErrRateLimit = &Error{Kind: FailureRateLimit, Message: "rate limit exceeded"}
	ErrTransient = &Error{Kind: FailureTransient, Message: "temporary error"}
	ErrNotFound  = &Error{Kind: FailureNotFound, Message: "not found"}
)

// NewAuthError creates an authentication error.
func NewAuthError(name string, cause error) *Error {
	return &Error{Kind: FailureAuth, Provider: name, Message: "authentication failed", Cause: cause}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(name string) *Error {
	return &Error{Kind: FailureRateLimit, Provider: name, Message: "rate limit exceeded"}
}

// NewTransientError creates a retryable transient error.
func NewTransientError(name string, cause error) *Error {
	return &Error{Kind: FailureTransient, Provider: name, Message: "temporary error", Cause: cause}
}

// NewNotFoundError creates a not-found error; it never throttles a provider.
func NewNotFoundError(name string) *Error {
	return &Error{Kind: FailureNotFound, Provider: name, Message: "not found"}
}

// KindOf extracts the failure kind from an error, defaulting to transient
// for uncategorized failures.
func KindOf(err error) FailureKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return FailureTransient
}
