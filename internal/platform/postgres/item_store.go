package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/store"
)

// PostgresItemStore implements store.ItemStore on the item table.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates an item store on db, which may be a connection
// or a transaction. If logger is nil, slog.Default() is used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

var _ store.ItemStore = (*PostgresItemStore)(nil)

// Create implements store.ItemStore.Create.
// A second item with the same external ID in the same cart violates
// item_cart_external_uc and is reported as store.ErrDuplicateItem.
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.ItemRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO item (id, cart_id, external_id, name, value)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.CartID,
		item.ExternalID,
		item.Name,
		item.Value,
	)
	if err != nil {
		log.Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()),
			slog.String("cart_id", item.CartID.String()),
			slog.String("external_id", item.ExternalID))
		return MapUniqueViolation(err, store.ErrDuplicateItem)
	}

	log.Info("item created",
		slog.String("item_id", item.ID.String()),
		slog.String("cart_id", item.CartID.String()),
		slog.String("external_id", item.ExternalID))
	return nil
}

// WithTx implements store.ItemStore.WithTx.
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{db: tx, logger: s.logger}
}
