package handlers

import (
	"net/http"

	"github.com/dokyun/folio/pkg/database"
	"github.com/dokyun/folio/pkg/logger"
	"github.com/dokyun/folio/pkg/redis"
)

// HealthHandler reports service liveness plus backend reachability
type HealthHandler struct {
	db     *database.DB
	redis  *redis.Client
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. db and redis may be
// nil for surfaces that run without them (e.g. CLI-spawned API in
// screen-only mode).
func NewHealthHandler(db *database.DB, rdb *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, logger: log}
}

// Health returns overall service health
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":  "ok",
		"service": "folio-api",
	}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Database health check failed")
			status["database"] = "down"
			healthy = false
		} else {
			status["database"] = "up"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Redis health check failed")
			status["redis"] = "down"
			// Redis 장애는 캐시 폴백으로 흡수되므로 degraded로만 표시
			status["status"] = "degraded"
		} else {
			status["redis"] = "up"
		}
	}

	code := http.StatusOK
	if !healthy {
		status["status"] = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
