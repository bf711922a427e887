package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// IsValidCartID reports whether candidate parses as a UUID. Any RFC-4122
// variant or version is accepted, in every textual form uuid.Parse accepts
// (canonical, braced, urn-prefixed or bare hex). It never panics.
func IsValidCartID(candidate string) bool {
	_, err := uuid.Parse(candidate)
	return err == nil
}

// NewCartID mints a fresh random cart identity in canonical string form.
func NewCartID() string {
	return uuid.NewString()
}

// ParseCartID converts a cart identifier into its UUID value for storage.
func ParseCartID(cartID string) (uuid.UUID, error) {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidCartID, cartID)
	}
	return id, nil
}
