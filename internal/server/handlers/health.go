package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type HealthHandler struct {
	logger    *zap.Logger
	clock     clockwork.Clock
	startTime time.Time
	missing   func() []string
}

// NewHealthHandler takes a func reporting unconfigured credentials; the
// service is not ready while it returns anything.
func NewHealthHandler(logger *zap.Logger, missing func() []string) *HealthHandler {
	return newHealthHandler(logger, missing, clockwork.NewRealClock())
}

func newHealthHandler(logger *zap.Logger, missing func() []string, clock clockwork.Clock) *HealthHandler {
	if missing == nil {
		missing = func() []string { return nil }
	}
	return &HealthHandler{
		logger:    logger,
		clock:     clock,
		startTime: clock.Now(),
		missing:   missing,
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: h.clock.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	if missing := h.missing(); len(missing) > 0 {
		h.logger.Debug("Not ready, credentials missing", zap.Strings("missing", missing))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:  "not_ready",
			Uptime:  h.clock.Since(h.startTime).String(),
			Missing: missing,
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: h.clock.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    h.clock.Since(h.startTime).String(),
		Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
	})
}
