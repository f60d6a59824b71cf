package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/smart-commute/internal/server/utils"
	"github.com/vzahanych/smart-commute/pkg/logger"
	"go.uber.org/zap"
)

// CacheAdmin is satisfied by *aggregator.Aggregator.
type CacheAdmin interface {
	GetCacheStats() map[string]interface{}
	ClearCache()
}

type CacheHandler struct {
	cache  CacheAdmin
	logger *zap.Logger
}

func NewCacheHandler(cache CacheAdmin, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		logger: logger,
	}
}

func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetCacheStats())
}

// Clear drops every cached recommendation.
func (h *CacheHandler) Clear(c *gin.Context) {
	h.cache.ClearCache()
	logger.ForContext(utils.GetContextFromGinContext(c), h.logger).Info("Recommendation cache cleared")
	c.Status(http.StatusNoContent)
}
