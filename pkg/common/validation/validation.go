// Package validation provides common validation utilities for the gobucket library.
package validation

import (
	"time"

	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
)

// ValidateNonNegative validates that a numeric value is non-negative (>= 0).
// Returns a ConfigurationError if the value is negative.
func ValidateNonNegative(module, field string, value float64) error {
	if value < 0 {
		return gberrors.NewConfigurationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive (> 0).
// Returns a ConfigurationError if the duration is zero or negative.
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return gberrors.NewConfigurationError(module, field, value, "must be positive").
			WithHint("a refill period of zero has no defined rate")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ConfigurationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return gberrors.NewConfigurationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ConfigurationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return gberrors.NewConfigurationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
