package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
	"go.uber.org/zap"
)

// Pinger is implemented by the appointment store backends
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness together with store reachability
type HealthHandler struct {
	store   Pinger
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// GetHealth pings the store
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, api.HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}
