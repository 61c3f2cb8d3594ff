// Package errors defines the error types shared across the gobucket library.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indicates an internally inconsistent bucket configuration
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRateLimited indicates that a request could not be satisfied by the bucket
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates that an optimistic state swap lost a race and retries ran out
	ErrConflict = errors.New("state version conflict")

	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrRateLimited)
}

// ConfigurationError describes a rejected configuration value. It carries the
// module and field the value was destined for so that callers assembling a
// bucket from several bandwidths can tell which one was at fault.
type ConfigurationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewConfigurationError creates a ConfigurationError for the given module and field.
func NewConfigurationError(module, field string, value interface{}, reason string) *ConfigurationError {
	return &ConfigurationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a human-readable suggestion and returns the error.
func (e *ConfigurationError) WithHint(hint string) *ConfigurationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

// Unwrap makes ConfigurationError match ErrInvalidConfiguration under errors.Is.
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}
