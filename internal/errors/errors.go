package errors

import (
	"errors"
	"fmt"
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is enables errors.Is() comparison for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ConflictError represents an operation refused because another one is in flight
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

var (
	ErrShiftCodeNotFound   = &NotFoundError{Entity: "shift code"}
	ErrAPIKeyNotFound      = &NotFoundError{Entity: "api key"}
	ErrInvalidDateRange    = &ValidationError{Field: "end_date", Message: "end date must not be before start date"}
	ErrEmptyStaffList      = &ValidationError{Field: "staff", Message: "at least one staff member is required"}
	ErrInvalidShiftTime    = &ValidationError{Field: "start_time", Message: "times must use HH:MM"}
	ErrApplyInProgress     = &ConflictError{Message: "a schedule is already being applied for this range"}
	ErrLockNotHeld         = errors.New("lock is not held")
	ErrCredentialsInvalid  = errors.New("invalid credentials")
	ErrInvalidKeyFormat    = errors.New("invalid key format")
	ErrInvalidKeySignature = errors.New("invalid signature")
)

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}
