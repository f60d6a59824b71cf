package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "smart_commute"

// AppMetrics holds the Prometheus collectors for the HTTP surface, the
// recommendation cache and the outbound API clients. Each instance owns its
// registry so tests can build as many as they like.
type AppMetrics struct {
	registry *prometheus.Registry

	CacheLookups    *prometheus.CounterVec   // labels: cache, result={hit,miss}
	ServiceCalls    *prometheus.CounterVec   // labels: service, outcome={success,error}
	ServiceDuration *prometheus.HistogramVec // labels: service
	HTTPRequests    *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration    *prometheus.HistogramVec // labels: method, route
	HTTPActive      prometheus.Gauge
}

func NewAppMetrics() *AppMetrics {
	m := &AppMetrics{
		registry: prometheus.NewRegistry(),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Recommendation cache lookups by result.",
		}, []string{"cache", "result"}),
		ServiceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_calls_total",
			Help:      "Outbound API calls by service and outcome.",
		}, []string{"service", "outcome"}),
		ServiceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_call_duration_seconds",
			Help:      "Outbound API call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"service"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "HTTP requests currently being served.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CacheLookups,
		m.ServiceCalls,
		m.ServiceDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.HTTPActive,
	)

	return m
}

// RecordCacheHit records a cache hit metric
func (m *AppMetrics) RecordCacheHit(_ context.Context, cacheType string) {
	m.CacheLookups.WithLabelValues(cacheType, "hit").Inc()
}

// RecordCacheMiss records a cache miss metric
func (m *AppMetrics) RecordCacheMiss(_ context.Context, cacheType string) {
	m.CacheLookups.WithLabelValues(cacheType, "miss").Inc()
}

func (m *AppMetrics) RecordServiceCall(service string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.ServiceCalls.WithLabelValues(service, outcome).Inc()
	m.ServiceDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *AppMetrics) RequestStarted() {
	m.HTTPActive.Inc()
}

func (m *AppMetrics) RequestFinished(method, route, status string, duration time.Duration) {
	m.HTTPActive.Dec()
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

type MetricsHandler struct {
	logger  *zap.Logger
	handler gin.HandlerFunc
}

func NewMetricsHandler(metrics *AppMetrics, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger: logger,
		handler: gin.WrapH(promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{
			ErrorLog: zap.NewStdLog(logger),
		})),
	}
}

// ServeMetrics exposes the registry in the Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	h.handler(c)
}
