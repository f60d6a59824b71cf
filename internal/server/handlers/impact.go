package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/smart-commute/internal/commute"
	"github.com/vzahanych/smart-commute/internal/server/utils"
	"github.com/vzahanych/smart-commute/internal/service"
	"github.com/vzahanych/smart-commute/pkg/logger"
	"go.uber.org/zap"
)

type ImpactHandler struct {
	weather service.WeatherProvider
	logger  *zap.Logger
}

func NewImpactHandler(weather service.WeatherProvider, logger *zap.Logger) *ImpactHandler {
	return &ImpactHandler{
		weather: weather,
		logger:  logger,
	}
}

// Classify scores a posted observation.
func (h *ImpactHandler) Classify(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := logger.ForContext(ctx, h.logger)

	var req ImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqLogger.Warn("Invalid impact request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid observation",
			Code:   "INVALID_OBSERVATION",
			Fields: errs,
		})
		return
	}

	c.JSON(http.StatusOK, impactResponse(req.Observation()))
}

// Current classifies the live conditions from the weather provider.
func (h *ImpactHandler) Current(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := logger.ForContext(ctx, h.logger)

	obs, err := h.weather.Observation(ctx)
	if err != nil {
		reqLogger.Error("Failed to fetch weather observation", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Failed to fetch weather data",
			Code:    "WEATHER_ERROR",
			Details: err.Error(),
		})
		return
	}

	resp := impactResponse(obs)
	reqLogger.Info("Commute impact classified",
		zap.String("rule", resp.Rule),
		zap.String("severity", string(resp.Impact.Severity)))

	c.JSON(http.StatusOK, resp)
}

func impactResponse(obs commute.WeatherObservation) ImpactResponse {
	rule := commute.Match(obs)
	impact := commute.Classify(obs)
	return ImpactResponse{
		Observation: obs,
		Impact:      impact,
		Rule:        rule.Name,
		AvoidAreas:  commute.AvoidAreas(impact.Severity),
	}
}
