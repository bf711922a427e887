package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// CartStore persists cart identities.
type CartStore interface {
	// Create inserts a cart row keyed by id.
	// Returns ErrCartExists if the cart is already present.
	Create(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CartStore bound to tx.
	WithTx(tx *sql.Tx) CartStore
}
