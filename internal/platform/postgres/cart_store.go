package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/store"
)

// PostgresCartStore implements store.CartStore on the cart table.
type PostgresCartStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCartStore creates a cart store on db, which may be a connection
// or a transaction. If logger is nil, slog.Default() is used.
func NewPostgresCartStore(db store.DBTX, logger *slog.Logger) *PostgresCartStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCartStore{
		db:     db,
		logger: logger.With(slog.String("component", "cart_store")),
	}
}

var _ store.CartStore = (*PostgresCartStore)(nil)

// Create implements store.CartStore.Create.
func (s *PostgresCartStore) Create(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `INSERT INTO cart (id) VALUES ($1)`, id)
	if err != nil {
		log.Error("failed to create cart",
			slog.String("error", err.Error()),
			slog.String("cart_id", id.String()))
		return MapUniqueViolation(err, store.ErrCartExists)
	}

	log.Debug("cart created", slog.String("cart_id", id.String()))
	return nil
}

// WithTx implements store.CartStore.WithTx.
func (s *PostgresCartStore) WithTx(tx *sql.Tx) store.CartStore {
	return &PostgresCartStore{db: tx, logger: s.logger}
}
