package repository

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// ProductRepository defines read access to the product catalog. Ingestion
// never creates products; Create exists for seeding.
type ProductRepository interface {
	// FindByName returns nil, nil when the catalog has no such product.
	FindByName(ctx context.Context, name string) (*models.Product, error)

	// Create inserts a product, returning the existing row if the name is taken.
	Create(ctx context.Context, name string) (*models.Product, error)
}

type productRepository struct {
	db *database.Database
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *database.Database) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	query := `SELECT id, name, created_at FROM products WHERE name = $1`

	var p models.Product
	err := r.db.Pool.QueryRow(ctx, query, models.CanonicalProductName(name)).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query product %q: %w", name, err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, name string) (*models.Product, error) {
	query := `
		INSERT INTO products (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`

	var p models.Product
	err := r.db.Pool.QueryRow(ctx, query, models.CanonicalProductName(name)).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product %q: %w", name, err)
	}
	return &p, nil
}

// cachedProductRepository keeps found products in an LRU. Misses are not
// cached, so a product seeded after startup becomes visible on the next lookup.
type cachedProductRepository struct {
	next  ProductRepository
	cache *lru.Cache[string, *models.Product]
}

// NewCachedProductRepository wraps next with an LRU of the given size.
func NewCachedProductRepository(next ProductRepository, size int) (ProductRepository, error) {
	cache, err := lru.New[string, *models.Product](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create product cache: %w", err)
	}
	return &cachedProductRepository{next: next, cache: cache}, nil
}

func (r *cachedProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	key := models.CanonicalProductName(name)
	if p, ok := r.cache.Get(key); ok {
		return p, nil
	}

	p, err := r.next.FindByName(ctx, key)
	if err != nil || p == nil {
		return p, err
	}
	r.cache.Add(key, p)
	return p, nil
}

func (r *cachedProductRepository) Create(ctx context.Context, name string) (*models.Product, error) {
	p, err := r.next.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	r.cache.Add(p.Name, p)
	return p, nil
}
