package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/cart-tracker/internal/domain"
)

// ItemStore persists tracked items.
type ItemStore interface {
	// Create inserts an item row.
	// Returns ErrDuplicateItem if the cart already holds the external ID and
	// ErrInvalidEntity if the referenced cart does not exist.
	Create(ctx context.Context, item *domain.ItemRecord) error

	// WithTx returns an ItemStore bound to tx.
	WithTx(tx *sql.Tx) ItemStore
}
