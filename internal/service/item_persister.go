package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/redact"
	"github.com/phrazzld/cart-tracker/internal/store"
	"github.com/phrazzld/cart-tracker/internal/task"
)

// ItemPersister is the worker-side half of the dispatcher. It writes one
// queued item, and its cart when the cart was minted for it, atomically.
type ItemPersister struct {
	db        *sql.DB
	cartStore store.CartStore
	itemStore store.ItemStore
	logger    *slog.Logger
}

var _ task.ItemPersister = (*ItemPersister)(nil)

// NewItemPersister creates an ItemPersister. It returns an error if any of
// the required dependencies are nil.
func NewItemPersister(
	db *sql.DB,
	cartStore store.CartStore,
	itemStore store.ItemStore,
	logger *slog.Logger,
) (*ItemPersister, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if cartStore == nil {
		return nil, errors.New("cartStore cannot be nil")
	}
	if itemStore == nil {
		return nil, errors.New("itemStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemPersister{
		db:        db,
		cartStore: cartStore,
		itemStore: itemStore,
		logger:    logger.With("component", "item_persister"),
	}, nil
}

// Persist inserts the cart row when item.NewCart is set, then the item row,
// and commits. Any failure rolls the whole job back and is returned; a
// duplicate (cart_id, external_id) pair surfaces as store.ErrDuplicateItem.
// Persist does not retry.
func (p *ItemPersister) Persist(ctx context.Context, item *domain.Item) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	record, err := item.ToRecord()
	if err != nil {
		log.Error("refusing to persist invalid item",
			"error", err,
			"cart_id", item.CartID,
			"external_id", item.ExternalID)
		return NewServiceError("persist_item", "invalid item", err)
	}

	err = store.RunInTransaction(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		if item.NewCart {
			if err := p.cartStore.WithTx(tx).Create(ctx, record.CartID); err != nil {
				return err
			}
		}
		return p.itemStore.WithTx(tx).Create(ctx, record)
	})
	if err != nil {
		log.Error("failed to persist item",
			"error", redact.Error(err),
			"cart_id", item.CartID,
			"external_id", item.ExternalID,
			"new_cart", item.NewCart)
		return NewServiceError("persist_item", "failed to save item", err)
	}

	log.Debug("item saved",
		"item_id", record.ID,
		"cart_id", record.CartID,
		"new_cart", item.NewCart)
	return nil
}
