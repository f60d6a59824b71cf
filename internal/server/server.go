package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/server/handlers"
	"github.com/vzahanych/smart-commute/internal/server/middlewares"
	"github.com/vzahanych/smart-commute/internal/service"
	"github.com/vzahanych/smart-commute/pkg/telemetry"
	"go.uber.org/zap"
)

// Recommender serves recommendations and exposes its cache.
type Recommender interface {
	handlers.RecommendationSource
	handlers.CacheAdmin
}

type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	server  *http.Server
	source  Recommender
	weather service.WeatherProvider
	metrics *handlers.AppMetrics
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewServer(cfg *config.Config, source Recommender, weather service.WeatherProvider,
	metrics *handlers.AppMetrics, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, "/health", "/health/live", "/health/ready", "/metrics"))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(middlewares.MetricsMiddleware(metrics))

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		source:  source,
		weather: weather,
		metrics: metrics,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Business endpoints
	s.engine.GET("/recommendation", handlers.NewRecommendationHandler(s.source, s.cfg.Commute, s.logger).GetRecommendation)

	cache := handlers.NewCacheHandler(s.source, s.logger)
	s.engine.GET("/cache", cache.Stats)
	s.engine.DELETE("/cache", cache.Clear)

	impact := handlers.NewImpactHandler(s.weather, s.logger)
	s.engine.GET("/impact", impact.Current)
	s.engine.POST("/impact", impact.Classify)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.cfg.MissingCredentials)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", handlers.NewMetricsHandler(s.metrics, s.logger).ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
