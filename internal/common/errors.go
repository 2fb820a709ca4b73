// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Lookup errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Catalog errors.
	ErrUnknownElement  = errors.New("unknown element code")
	ErrVariantRequired = errors.New("element requires a variant selection")

	// Case errors.
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrCaseCompleted     = errors.New("case already completed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// NotFoundError carries the alternatives available when a lookup fails,
// so callers can enumerate them back to the user.
type NotFoundError struct {
	Kind         string
	Requested    string
	Alternatives []string
}

func (e *NotFoundError) Error() string {
	if len(e.Alternatives) == 0 {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Requested)
	}
	return fmt.Sprintf("%s %q not found (available: %v)", e.Kind, e.Requested, e.Alternatives)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a NotFoundError with available alternatives.
func NewNotFoundError(kind, requested string, alternatives []string) error {
	return &NotFoundError{
		Kind:         kind,
		Requested:    requested,
		Alternatives: alternatives,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
