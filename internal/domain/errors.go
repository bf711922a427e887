package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCartID is returned when a cart identifier is not a valid UUID.
	ErrInvalidCartID = errors.New("invalid cart_id")
)
