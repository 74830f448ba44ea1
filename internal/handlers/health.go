package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	redisclient "fleet-service/internal/redis"
)

var startTime = time.Now()

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db    *gorm.DB
	cache *redisclient.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, cache *redisclient.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check represents a health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Service   string           `json:"service"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Health is the liveness probe; it never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "fleet-service",
		Uptime:    time.Since(startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready is the readiness probe; it verifies the database and Redis.
// Redis is optional, its failure degrades the check without failing it.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]Check{}
	status := "ready"
	code := http.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = Check{Status: "down", Message: "database unreachable"}
		status = "not ready"
		code = http.StatusServiceUnavailable
	} else {
		checks["database"] = Check{Status: "up"}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = Check{Status: "degraded", Message: "cache unreachable"}
		} else {
			checks["redis"] = Check{Status: "up"}
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Service:   "fleet-service",
		Uptime:    time.Since(startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
