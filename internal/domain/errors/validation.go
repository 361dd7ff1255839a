package errors

import (
	"fmt"
	"strings"
)

// FieldViolation names one input field and the rule it broke.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is a 400 AppError carrying every rejected field.
// errors.Is(err, ErrValidationFailed) holds for any ValidationError.
type ValidationError struct {
	violations []FieldViolation
}

// NewValidationError builds a ValidationError from the given violations
func NewValidationError(violations ...FieldViolation) *ValidationError {
	return &ValidationError{violations: violations}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.violations) == 0 {
		return ErrValidationFailed.Message()
	}

	parts := make([]string, 0, len(e.violations))
	for _, v := range e.violations {
		parts = append(parts, fmt.Sprintf("%s:%s", v.Field, v.Rule))
	}

	return ErrValidationFailed.Message() + ": " + strings.Join(parts, ", ")
}

// Is matches ErrValidationFailed
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Violations returns the rejected fields
func (e *ValidationError) Violations() []FieldViolation {
	return e.violations
}

func (e *ValidationError) HTTPCode() int {
	return ErrValidationFailed.HTTPCode()
}

func (e *ValidationError) ErrorCode() string {
	return ErrValidationFailed.ErrorCode()
}

func (e *ValidationError) Message() string {
	return ErrValidationFailed.Message()
}

// Details returns the violations, or nil when there are none
func (e *ValidationError) Details() any {
	if len(e.violations) == 0 {
		return nil
	}

	return e.violations
}
