package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/database/dbtest"
)

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := dbtest.Config()
	cfg.Host = "invalid-host-that-does-not-exist"

	_, err := database.NewPostgresPool(ctx, cfg)
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	var n int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM information_schema.tables
		WHERE table_name IN ('owners', 'properties', 'products', 'owner_product_properties',
		'public_record_producers', 'county_priorities')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestWithTx(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO products (name) VALUES ('/il/cook/probate')`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countProducts(t, db))
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `INSERT INTO products (name) VALUES ('/il/cook/eviction')`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, countProducts(t, db))
	})
}

func TestPing_AfterClose(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))
	assert.Positive(t, db.Stats().Max)

	db.Close()
	db.Close()
	assert.Error(t, db.Ping(ctx))
}

func countProducts(t *testing.T, db *database.Database) int {
	t.Helper()
	var n int
	require.NoError(t, db.Pool.QueryRow(context.Background(), `SELECT count(*) FROM products`).Scan(&n))
	return n
}
