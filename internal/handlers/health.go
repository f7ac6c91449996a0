package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/publicrecords/internal/database"
	apierrors "github.com/stwalsh4118/publicrecords/internal/errors"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout bounds each dependency ping
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency the readiness check can reach.
// *database.Database and *cache.RedisQueryCache implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolReporter is implemented by a database that can describe its pool.
type PoolReporter interface {
	Stats() database.PoolStats
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	cache     Pinger
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. cache may be nil
// when result caching is disabled.
func NewHealthHandler(db Pinger, cache Pinger, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string              `json:"status"`
	Database string              `json:"database"`
	Cache    string              `json:"cache"`
	Pool     *database.PoolStats `json:"pool,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health. It is a liveness check and touches no dependency.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready. The database must answer; an unreachable
// cache is reported but does not fail readiness since queries bypass it.
func (h *HealthHandler) Ready(c *gin.Context) {
	log := middleware.GetLogger(c)
	resp := ReadyResponse{Status: "ready", Database: "connected", Cache: "disabled"}

	if err := ping(c.Request.Context(), h.db); err != nil {
		if log != nil {
			log.Error("Database health check failed", err, logger.Fields{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		resp.Status = "not_ready"
		resp.Database = "disconnected"
	} else if r, ok := h.db.(PoolReporter); ok {
		stats := r.Stats()
		resp.Pool = &stats
	}

	if h.cache != nil {
		resp.Cache = "connected"
		if err := ping(c.Request.Context(), h.cache); err != nil {
			if log != nil {
				log.Warn("Cache health check failed", logger.Fields{"error": err.Error()})
			}
			resp.Cache = "disconnected"
		}
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// NoRoute answers unknown paths with the JSON error envelope.
func NoRoute(c *gin.Context) {
	apierrors.NotFound(c, fmt.Sprintf("No route for %s %s", c.Request.Method, c.Request.URL.Path))
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
