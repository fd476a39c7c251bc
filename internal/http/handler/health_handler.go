package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/database"
	"github.com/woodcraft-crm/leadflow-api/internal/datawarehouse"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler serves the liveness and readiness checks
type HealthHandler struct {
	db     *gorm.DB
	cache  cache.Store
	dw     *datawarehouse.Client
	logger *zap.Logger
}

// NewHealthHandler creates the health handler. dw may be nil when the
// warehouse is disabled.
func NewHealthHandler(db *gorm.DB, store cache.Store, dw *datawarehouse.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: store, dw: dw, logger: logger}
}

// Live is the basic liveness check
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Database is the readiness check with connection pool stats
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	stats := database.HealthCheckWithStats(r.Context(), h.db)
	if stats.Status != "healthy" {
		h.logger.Error("Database health check failed", zap.String("error", stats.Error))
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  stats.Status,
			"service": "database",
			"error":   stats.Error,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// Ready checks every dependency. A disabled warehouse does not fail readiness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if err := h.cache.Ping(ctx); err != nil {
		h.logger.Error("Cache health check failed", zap.Error(err))
		checks["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["cache"] = map[string]interface{}{"status": "healthy"}
	}

	dw := h.dw.HealthCheck(ctx)
	checks["datawarehouse"] = dw
	if dw.Status == "unhealthy" {
		allHealthy = false
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
