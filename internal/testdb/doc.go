//go:build integration

// Package testdb provides helpers for tests that run against a live
// Postgres database.
//
// Tests are isolated with transactions that are always rolled back:
//
//	func TestSomething(t *testing.T) {
//		db := testdb.Open(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			carts := postgres.NewPostgresCartStore(tx, nil)
//			...
//		})
//	}
//
// The database URL is read from TRACKER_TEST_DB_URL, falling back to
// DATABASE_URL. Without either, tests are skipped.
package testdb
