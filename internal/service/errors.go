package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/cart-tracker/internal/domain"
)

// Intake errors. Each corresponds to exactly one client-facing rejection;
// the API layer maps them to status codes and reason phrases.
var (
	// ErrEmptyBody indicates the request carried no payload bytes.
	ErrEmptyBody = errors.New("empty request body")

	// ErrMalformedPayload indicates the body is not a JSON object, or a
	// recognized field has the wrong JSON type.
	ErrMalformedPayload = errors.New("malformed item payload")

	// ErrInvalidCartID indicates the payload or cookie cart identity is not a UUID.
	ErrInvalidCartID = domain.ErrInvalidCartID

	// ErrMissingExternalID indicates the payload has no external_id.
	ErrMissingExternalID = errors.New("external_id is required")

	// ErrDispatchFailed indicates a valid item could not be queued for persistence.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrDispatchFailed = errors.New("item could not be queued")
)

// ServiceError wraps errors from the service layer with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "persist_item")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. It returns nil for a nil err.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
