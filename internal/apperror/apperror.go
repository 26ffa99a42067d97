// Package apperror defines the typed failures shared by the store, the auth
// controller and the outer surfaces (HTTP, CLI).
//
// Every failure is an *AppError wrapping one of the sentinel errors below, so
// callers branch with errors.Is and read the human message with errors.As.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InvalidCredentialsMessage is shown for every failed sign-in, whatever the
// cause, so the response never reveals whether an account exists.
const InvalidCredentialsMessage = "Invalid email or password"

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable message
	Field   string // optional: field causing the error
	cause   error  // optional: underlying driver error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and, when present, the underlying cause.
func (e *AppError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateKey reports a primary key or unique index collision in a collection.
func DuplicateKey(collection, field string) *AppError {
	return &AppError{
		Err:     ErrDuplicateKey,
		Message: fmt.Sprintf("%s: duplicate value for %s", collection, field),
		Field:   field,
	}
}

// DuplicateEmail is the registration-level form of a users.email collision.
// It matches both ErrDuplicateEmail and ErrDuplicateKey.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: "email already in use",
		Field:   "email",
		cause:   DuplicateKey("users", "email"),
	}
}

// StorageUnavailable wraps a driver or I/O failure. The cause stays reachable
// through errors.Is/As but is not part of the message.
func StorageUnavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorageUnavailable,
		Message: fmt.Sprintf("storage unavailable: %s", op),
		cause:   cause,
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: InvalidCredentialsMessage,
	}
}
