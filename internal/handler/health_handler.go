package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Kosench/shortlink/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
	statusDegraded  = "degraded"

	healthTimeout = 2 * time.Second
)

// Check reports the health of one dependency. A nil Check means the
// dependency is disabled.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
	info   func(ctx context.Context) map[string]any
}

// NewHealthHandler takes named dependency checks ("database", "cache") and
// an optional provider for /info.
func NewHealthHandler(checks map[string]Check, info func(ctx context.Context) map[string]any) *HealthHandler {
	return &HealthHandler{checks: checks, info: info}
}

// Root is a liveness check.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.Success("URL shortener is running", nil))
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := statusHealthy
	services := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		switch {
		case check == nil:
			services[name] = statusDisabled
		case check(ctx) != nil:
			services[name] = statusUnhealthy
			status = statusDegraded
		default:
			services[name] = statusHealthy
		}
	}

	data := gin.H{"status": status, "services": services}

	if status == statusDegraded {
		c.JSON(http.StatusServiceUnavailable, model.Envelope{
			Success: false,
			Error:   "Service degraded",
			Data:    data,
		})
		return
	}

	c.JSON(http.StatusOK, model.Success("Service healthy", data))
}

func (h *HealthHandler) Info(c *gin.Context) {
	info := map[string]any{"service": "URL Shortener"}
	if h.info != nil {
		for k, v := range h.info(c.Request.Context()) {
			info[k] = v
		}
	}

	c.JSON(http.StatusOK, model.Success("Service info", info))
}
