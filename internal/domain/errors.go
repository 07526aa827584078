package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrDimensionMismatch signals embeddings of inconsistent length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDuplicateName signals an enrollment under a name that is already taken.
	ErrDuplicateName = errors.New("speaker already exists")
	// ErrNotFound signals a missing speaker.
	ErrNotFound = errors.New("speaker not found")
)

// ValidationError describes which input failed validation and why.
// It matches ErrValidation, and additionally the wrapped error (if any) via errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %s", ErrValidation.Error(), e.Field, e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

// Unwrap exposes both the validation sentinel and the cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewDimensionError creates a validation error for a vector of the wrong length.
func NewDimensionError(field string, got, want int) error {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("got %d values, want %d", got, want),
		Err:    ErrDimensionMismatch,
	}
}
