// Package dbtest opens a migrated, empty database for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stwalsh4118/publicrecords/internal/config"
	"github.com/stwalsh4118/publicrecords/internal/database"
)

// Config returns the test database configuration, overridable through the
// usual DB_* environment variables.
func Config() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "publicrecords_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  8,
	}
}

// Open connects to the test database, applies the schema and truncates every
// table. It skips the test in short mode or when Postgres is unreachable.
func Open(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.NewPostgresPool(ctx, Config())
	if err != nil {
		t.Skipf("Skipping integration test, database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	_, err = db.Pool.Exec(ctx, `TRUNCATE owner_product_properties, owners, properties, products,
		public_record_producers, county_priorities RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate test database: %v", err)
	}
	return db
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
