package core

import (
	"errors"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is a sentinel error for callers lacking the rights an
// operation requires. Authorization failures abort before any upstream I/O.
var ErrUnauthorized = errors.New("unauthorized")

// ErrValidation is a sentinel error for malformed or unresolvable input
var ErrValidation = errors.New("validation failed")

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorizedError checks if an error is an authorization failure
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsValidationError checks if an error is a validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
