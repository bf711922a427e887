package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrDuplicate is returned when an insert would violate a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when a row violates a foreign key, not-null
	// or check constraint. Check the wrapped error for details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrCartExists indicates the cart identity is already stored.
	ErrCartExists = fmt.Errorf("%w: cart", ErrDuplicate)

	// ErrDuplicateItem indicates the cart already contains an item with the same external ID.
	ErrDuplicateItem = fmt.Errorf("%w: item", ErrDuplicate)
)

// IsDuplicateError reports whether err is any kind of uniqueness violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
