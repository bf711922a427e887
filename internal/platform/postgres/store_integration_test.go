//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/postgres"
	"github.com/phrazzld/cart-tracker/internal/store"
	"github.com/phrazzld/cart-tracker/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores_CreateCartAndItem(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		carts := postgres.NewPostgresCartStore(tx, nil)
		items := postgres.NewPostgresItemStore(tx, nil)

		cartID := uuid.New()
		require.NoError(t, carts.Create(ctx, cartID))

		name := "Peeps"
		value := int64(200)
		require.NoError(t, items.Create(ctx, &domain.ItemRecord{
			ID:         uuid.New(),
			CartID:     cartID,
			ExternalID: "123123",
			Name:       &name,
			Value:      &value,
		}))

		var gotName sql.NullString
		var gotValue sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT name, value FROM item WHERE cart_id = $1 AND external_id = $2`,
			cartID, "123123").Scan(&gotName, &gotValue)
		require.NoError(t, err)
		assert.Equal(t, "Peeps", gotName.String)
		assert.Equal(t, int64(200), gotValue.Int64)
	})
}

func TestItemStore_DuplicateExternalID(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		carts := postgres.NewPostgresCartStore(tx, nil)
		items := postgres.NewPostgresItemStore(tx, nil)

		cartID := uuid.New()
		require.NoError(t, carts.Create(ctx, cartID))

		record := &domain.ItemRecord{ID: uuid.New(), CartID: cartID, ExternalID: "sku-1"}
		require.NoError(t, items.Create(ctx, record))

		err := items.Create(ctx, &domain.ItemRecord{ID: uuid.New(), CartID: cartID, ExternalID: "sku-1"})
		assert.ErrorIs(t, err, store.ErrDuplicateItem)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestItemStore_UnknownCart(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		items := postgres.NewPostgresItemStore(tx, nil)

		err := items.Create(context.Background(), &domain.ItemRecord{
			ID:         uuid.New(),
			CartID:     uuid.New(),
			ExternalID: "sku-1",
		})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}
