package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// CacheConfig holds the query result cache and product lookup cache settings.
// An empty RedisURL disables the query cache.
type CacheConfig struct {
	RedisURL         string
	QueryTTL         time.Duration
	ProductCacheSize int
}

// AuthConfig holds the secret used to verify query API tokens.
type AuthConfig struct {
	JWTSecret string
}

// IngestConfig bounds an ingestion run.
type IngestConfig struct {
	DataDir        string
	MaxRetries     int
	InitialBackoff time.Duration
	Timeout        time.Duration
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "publicrecords")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("QUERY_CACHE_TTL", "5m")
	v.SetDefault("PRODUCT_CACHE_SIZE", 512)
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("INGEST_MAX_RETRIES", 3)
	v.SetDefault("INGEST_INITIAL_BACKOFF", "500ms")
	v.SetDefault("INGEST_TIMEOUT", "30m")
	v.SetDefault("INGEST_DATA_DIR", "./data")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Cache: CacheConfig{
			RedisURL:         v.GetString("REDIS_URL"),
			QueryTTL:         v.GetDuration("QUERY_CACHE_TTL"),
			ProductCacheSize: v.GetInt("PRODUCT_CACHE_SIZE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		},
		Ingest: IngestConfig{
			DataDir:        v.GetString("INGEST_DATA_DIR"),
			MaxRetries:     v.GetInt("INGEST_MAX_RETRIES"),
			InitialBackoff: v.GetDuration("INGEST_INITIAL_BACKOFF"),
			Timeout:        v.GetDuration("INGEST_TIMEOUT"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate cache config
	if c.Cache.ProductCacheSize < 1 {
		return fmt.Errorf("PRODUCT_CACHE_SIZE must be at least 1")
	}
	if c.Cache.QueryTTL < 0 {
		return fmt.Errorf("QUERY_CACHE_TTL must be non-negative")
	}

	// Validate auth config
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("AUTH_JWT_SECRET is required outside development")
	}

	// Validate ingest config
	if c.Ingest.MaxRetries < 0 {
		return fmt.Errorf("INGEST_MAX_RETRIES must be non-negative")
	}
	if c.Ingest.InitialBackoff <= 0 {
		return fmt.Errorf("INGEST_INITIAL_BACKOFF must be positive")
	}
	if c.Ingest.Timeout <= 0 {
		return fmt.Errorf("INGEST_TIMEOUT must be positive")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
