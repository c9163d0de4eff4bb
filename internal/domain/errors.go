package domain

import "errors"

// Sentinel errors shared across the service and handler layers. Services
// wrap them with fmt.Errorf("%w: ...") to carry a response message; the
// handler layer maps each sentinel to an HTTP status in exactly one place.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidInput          = errors.New("invalid input")
	ErrConflict              = errors.New("resource conflict")
	ErrProviderNotConfigured = errors.New("oauth provider not configured")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
