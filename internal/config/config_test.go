package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithDefaults(t *testing.T) {
	// Arrange
	clearConfigEnvVars()
	os.Setenv("DB_PASSWORD", "testpass")
	defer os.Unsetenv("DB_PASSWORD")

	// Act
	cfg, err := Load()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "publicrecords", cfg.Database.Name)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, 2, cfg.Database.PoolMin)
	assert.Equal(t, 10, cfg.Database.PoolMax)
	assert.Len(t, cfg.CORS.Origins, 2)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.QueryTTL)
	assert.Equal(t, 512, cfg.Cache.ProductCacheSize)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Ingest.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Ingest.InitialBackoff)
	assert.Equal(t, 30*time.Minute, cfg.Ingest.Timeout)
	assert.Equal(t, "./data", cfg.Ingest.DataDir)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	// Arrange
	os.Setenv("PORT", "9090")
	os.Setenv("ENV", "production")
	os.Setenv("DB_HOST", "db")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "testdb")
	os.Setenv("DB_USER", "testuser")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("DB_POOL_MIN", "5")
	os.Setenv("DB_POOL_MAX", "20")
	os.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")
	os.Setenv("REDIS_URL", "redis://cache:6379/1")
	os.Setenv("QUERY_CACHE_TTL", "90s")
	os.Setenv("PRODUCT_CACHE_SIZE", "64")
	os.Setenv("AUTH_JWT_SECRET", "s3cret")
	os.Setenv("INGEST_MAX_RETRIES", "5")
	os.Setenv("INGEST_INITIAL_BACKOFF", "2s")
	os.Setenv("INGEST_TIMEOUT", "1h")
	os.Setenv("INGEST_DATA_DIR", "/var/lib/records")
	defer clearConfigEnvVars()

	// Act
	cfg, err := Load()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres://testuser:testpass@db:5433/testdb?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 5, cfg.Database.PoolMin)
	assert.Equal(t, 20, cfg.Database.PoolMax)
	assert.Equal(t, []string{"http://example.com", "https://app.example.com"}, cfg.CORS.Origins)
	assert.Equal(t, "redis://cache:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, 90*time.Second, cfg.Cache.QueryTTL)
	assert.Equal(t, 64, cfg.Cache.ProductCacheSize)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5, cfg.Ingest.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Ingest.InitialBackoff)
	assert.Equal(t, time.Hour, cfg.Ingest.Timeout)
	assert.Equal(t, "/var/lib/records", cfg.Ingest.DataDir)
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnvVars()

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	clearConfigEnvVars()
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("ENV", "production")
	defer clearConfigEnvVars()

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestValidate_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{name: "negative pool min", poolMin: -1, poolMax: 10, wantErr: true},
		{name: "zero pool max", poolMin: 0, poolMax: 0, wantErr: true},
		{name: "pool min greater than max", poolMin: 15, poolMax: 10, wantErr: true},
		{name: "valid pool sizes", poolMin: 2, poolMax: 10, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.PoolMin = tt.poolMin
			cfg.Database.PoolMax = tt.poolMax

			err := cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestValidate_InvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }},
		{name: "missing db password", mutate: func(c *Config) { c.Database.Password = "" }},
		{name: "missing CORS origins", mutate: func(c *Config) { c.CORS.Origins = []string{} }},
		{name: "zero product cache", mutate: func(c *Config) { c.Cache.ProductCacheSize = 0 }},
		{name: "negative query ttl", mutate: func(c *Config) { c.Cache.QueryTTL = -time.Second }},
		{name: "negative retries", mutate: func(c *Config) { c.Ingest.MaxRetries = -1 }},
		{name: "zero backoff", mutate: func(c *Config) { c.Ingest.InitialBackoff = 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Ingest.Timeout = 0 }},
		{name: "missing secret in staging", mutate: func(c *Config) { c.Server.Env = "staging"; c.Auth.JWTSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "single origin", input: "http://localhost:3000", expect: []string{"http://localhost:3000"}},
		{name: "multiple origins", input: "http://localhost:3000,http://localhost:3001", expect: []string{"http://localhost:3000", "http://localhost:3001"}},
		{name: "origins with spaces", input: " http://localhost:3000 , http://localhost:3001 ", expect: []string{"http://localhost:3000", "http://localhost:3001"}},
		{name: "empty string", input: "", expect: []string{}},
		{name: "only commas", input: ",,,", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, parseOrigins(tt.input))
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "publicrecords",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		CORS:   CORSConfig{Origins: []string{"http://localhost:3000"}},
		Cache:  CacheConfig{QueryTTL: time.Minute, ProductCacheSize: 16},
		Ingest: IngestConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, Timeout: time.Minute},
	}
}

// Helper function to clear all config-related environment variables
func clearConfigEnvVars() {
	for _, key := range []string{
		"PORT", "ENV", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_POOL_MIN", "DB_POOL_MAX", "CORS_ORIGINS", "REDIS_URL", "QUERY_CACHE_TTL",
		"PRODUCT_CACHE_SIZE", "AUTH_JWT_SECRET", "INGEST_MAX_RETRIES",
		"INGEST_INITIAL_BACKOFF", "INGEST_TIMEOUT", "INGEST_DATA_DIR",
	} {
		os.Unsetenv(key)
	}
}
