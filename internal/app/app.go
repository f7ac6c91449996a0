// Package app wires the store, repositories and services shared by the
// server and the command line tools.
package app

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/publicrecords/internal/config"
	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/repository"
	"github.com/stwalsh4118/publicrecords/internal/services"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config *config.Config
	DB     *database.Database
	Log    *logger.Logger

	Products  repository.ProductRepository
	Producers repository.ProducerRepository
	Links     repository.LinkRepository
	Engine    services.UpsertEngine
	Ledger    services.Ledger
}

// Open connects to Postgres, applies the schema and builds the services.
// The caller must Close the returned App.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	products, err := repository.NewCachedProductRepository(repository.NewProductRepository(db), cfg.Cache.ProductCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	producers := repository.NewProducerRepository(db)
	links := repository.NewLinkRepository(db)
	engine := services.NewUpsertEngine(
		repository.NewOwnerRepository(db),
		repository.NewPropertyRepository(db),
		products,
		links,
		log,
	)

	log.Info("Database ready", logger.Fields{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
		"pool_max": cfg.Database.PoolMax,
	})

	return &App{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Products:  products,
		Producers: producers,
		Links:     links,
		Engine:    engine,
		Ledger:    services.NewLedger(producers, log),
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.DB.Close()
}
