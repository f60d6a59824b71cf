package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/smart-commute/internal/aggregator"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/server/utils"
	"github.com/vzahanych/smart-commute/pkg/logger"
	"go.uber.org/zap"
)

// RecommendationSource is satisfied by *aggregator.Aggregator.
type RecommendationSource interface {
	GetRecommendation(ctx context.Context, origin, destination string) *aggregator.Recommendation
}

type RecommendationHandler struct {
	source  RecommendationSource
	commute config.CommuteConfig
	logger  *zap.Logger
}

func NewRecommendationHandler(source RecommendationSource, commute config.CommuteConfig, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		source:  source,
		commute: commute,
		logger:  logger,
	}
}

// GetRecommendation answers with 200 for a successful workflow run and 503,
// still carrying the partial recommendation, when too few steps succeeded.
func (h *RecommendationHandler) GetRecommendation(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := logger.ForContext(ctx, h.logger)

	var req RecommendationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid request parameters",
			Code:   "INVALID_PARAMS",
			Fields: errs,
		})
		return
	}

	if req.Origin == "" {
		req.Origin = h.commute.HomeAddress
	}
	if req.Destination == "" {
		req.Destination = h.commute.OfficeAddress
	}

	reqLogger.Info("Processing recommendation request",
		zap.String("origin", req.Origin),
		zap.String("destination", req.Destination))

	rec := h.source.GetRecommendation(ctx, req.Origin, req.Destination)
	if !rec.Successful {
		reqLogger.Warn("Workflow did not reach the success threshold",
			zap.Int("steps_succeeded", rec.SucceededSteps()))
		c.JSON(http.StatusServiceUnavailable, rec)
		return
	}

	c.JSON(http.StatusOK, rec)
}
