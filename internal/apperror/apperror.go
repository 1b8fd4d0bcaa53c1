// Package apperror defines the error taxonomy shared by every layer.
//
// Each constructor returns an *AppError that wraps one sentinel, so callers
// match with errors.Is and handlers map the sentinel to a status code.
// Field-level kinds (InvalidFormat, InvalidEnum, FutureDate, TooOld,
// InvalidRange) also match ErrValidation.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrValidation     = errors.New("validation error")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrInvalidEnum    = errors.New("invalid enum value")
	ErrFutureDate     = errors.New("date is in the future")
	ErrTooOld         = errors.New("date is too far in the past")
	ErrInvalidRange   = errors.New("invalid range")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation for every field-level kind.
func (e *AppError) Is(target error) bool {
	return target == ErrValidation && isValidationKind(e.Err)
}

func isValidationKind(err error) bool {
	switch err {
	case ErrValidation, ErrInvalidFormat, ErrInvalidEnum, ErrFutureDate, ErrTooOld, ErrInvalidRange:
		return true
	}
	return false
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// DuplicateEmail is returned when another user already owns the address.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: fmt.Sprintf("user with email %s is already registered", email),
		Field:   "email",
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func InvalidFormat(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidFormat,
		Message: message,
		Field:   field,
	}
}

func InvalidEnum(field, value string, allowed []string) *AppError {
	return &AppError{
		Err:     ErrInvalidEnum,
		Message: fmt.Sprintf("%s %q is not one of %v", field, value, allowed),
		Field:   field,
	}
}

func FutureDate(field string) *AppError {
	return &AppError{
		Err:     ErrFutureDate,
		Message: fmt.Sprintf("%s cannot be in the future", field),
		Field:   field,
	}
}

func TooOld(field string, years int) *AppError {
	return &AppError{
		Err:     ErrTooOld,
		Message: fmt.Sprintf("%s cannot be more than %d years ago", field, years),
		Field:   field,
	}
}

// InvalidRange reports an inverted from/to pair.
func InvalidRange(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidRange,
		Message: message,
		Field:   field,
	}
}
