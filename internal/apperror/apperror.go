// Package apperror defines the application's error taxonomy.
//
// Every layer returns errors from this small set of sentinel values wrapped in
// an *AppError, so callers can branch with errors.Is without inspecting
// message strings. The HTTP layer maps these to status codes; the service and
// repository layers never see an HTTP concept.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals an update/delete/lookup that matched zero rows.
	// Callers need this to distinguish "nothing happened" from "succeeded".
	ErrNotFound = errors.New("not found")

	// ErrValidation signals caller-supplied input rejected before it
	// reached storage.
	ErrValidation = errors.New("validation error")

	// ErrForeignKey signals a media insert whose eventId references no
	// existing event. It indicates a caller-side logic error and is never
	// retried; no row is persisted when it is returned.
	ErrForeignKey = errors.New("foreign key violation")

	// ErrStorage signals the underlying database being unreachable or
	// corrupted. Fatal to the attempted operation; the store does not
	// retry (retry policy, if any, belongs to the caller).
	ErrStorage = errors.New("storage failure")
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

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ForeignKey returns an AppError for a media row referencing a missing event.
func ForeignKey(eventID int64) *AppError {
	return &AppError{
		Err:     ErrForeignKey,
		Message: fmt.Sprintf("no event exists with id %d", eventID),
		Field:   "eventId",
	}
}

// Storage wraps a low-level database error so callers can classify it with
// errors.Is(err, ErrStorage) while the original driver error stays on the
// chain for logging.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrStorage, err),
		Message: fmt.Sprintf("storage failure during %s", op),
	}
}
