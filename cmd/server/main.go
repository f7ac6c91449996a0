package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/publicrecords/internal/app"
	"github.com/stwalsh4118/publicrecords/internal/cache"
	"github.com/stwalsh4118/publicrecords/internal/config"
	apierrors "github.com/stwalsh4118/publicrecords/internal/errors"
	"github.com/stwalsh4118/publicrecords/internal/handlers"
	"github.com/stwalsh4118/publicrecords/internal/ingest"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/middleware"
	"github.com/stwalsh4118/publicrecords/internal/repository"
	"github.com/stwalsh4118/publicrecords/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	importSource    = "upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting public records API", logger.Fields{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize store", err, logger.Fields{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer a.Close()

	// The query cache is optional; the API keeps serving from Postgres without it.
	var (
		queryCache  cache.QueryCache = cache.Noop{}
		cachePinger handlers.Pinger
	)
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisQueryCache(ctx, cfg.Cache.RedisURL, cfg.Cache.QueryTTL)
		if err != nil {
			log.Warn("Query cache unavailable, continuing without it", logger.Fields{"error": err.Error()})
		} else {
			defer rc.Close()
			queryCache = rc
			cachePinger = rc
		}
	}

	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET is empty, every API token will be rejected", nil)
	}
	verifier := services.NewTokenVerifier(cfg.Auth.JWTSecret)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	router.NoRoute(handlers.NoRoute)

	healthHandler := handlers.NewHealthHandler(a.DB, cachePinger, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	aggregator := services.NewQueryAggregator(repository.NewQueryRepository(a.DB), queryCache, log)
	queryHandler := handlers.NewOwnerProductPropertyHandler(aggregator)

	driver := ingest.NewDriver(
		a.Engine,
		a.Ledger,
		ingest.NewCSVSource(importSource, cfg.Ingest.DataDir, log),
		ingest.NewLogNotifier(log),
		cfg.Ingest,
		log,
	)
	importHandler := handlers.NewImportHandler(driver, cfg.Ingest.Timeout)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/owner-product-properties", middleware.Auth(verifier, handlers.RejectToken), queryHandler.List)
		v1.POST("/import", middleware.Auth(verifier, apierrors.Unauthorized), importHandler.Import)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", logger.Fields{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, logger.Fields{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
