package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/elektromart/bundle_api/internal/cache"
	"github.com/elektromart/bundle_api/internal/utils"
)

// HealthHandler reports liveness of the API and its backing stores.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check handles GET /v1/health
func (h *HealthHandler) Check(c *gin.Context) {
	status := gin.H{
		"database": "up",
		"redis":    "up",
	}
	healthy := true

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		status["database"] = "down"
		healthy = false
	}
	if err := h.redis.Ping(c.Request.Context()); err != nil {
		status["redis"] = "down"
		healthy = false
	}

	if !healthy {
		utils.Error(c, 503, "UNHEALTHY", "One or more dependencies are down")
		return
	}
	utils.Success(c, 200, "OK", status)
}
