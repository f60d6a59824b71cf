package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vzahanych/smart-commute/internal/commute"
	"github.com/vzahanych/smart-commute/internal/service"
	"github.com/vzahanych/smart-commute/pkg/logger"
	"github.com/vzahanych/smart-commute/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	StepCurrentWeather = "current_weather"
	StepForecast       = "forecast"
	StepNews           = "news"
	StepSocial         = "social"
	StepDirections     = "directions"
	StepGeocode        = "geocode"

	// MinSuccessfulSteps of the six workflow steps must succeed.
	MinSuccessfulSteps = 4

	// HotCelsius is the workflow's own heat alert threshold.
	HotCelsius = 35

	DefaultRoute         = "Default Route"
	DefaultDuration      = "45 minutes"
	DefaultWeatherImpact = "Normal conditions"

	RainAlert   = "Rain expected - Allow extra 20-30 minutes"
	HeatAlert   = "Very hot weather - AC usage may affect traffic"
	NewsAlert   = "Traffic news available"
	SocialAlert = "Social media traffic updates found"

	rainDuration = "1h 15m"
	mainRoute    = "Main Route"

	cacheType = "recommendation"
)

type StepResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Recommendation struct {
	Origin        string                 `json:"origin"`
	Destination   string                 `json:"destination"`
	Route         string                 `json:"route"`
	Duration      string                 `json:"duration"`
	Confidence    int                    `json:"confidence"`
	Alerts        []string               `json:"alerts"`
	WeatherImpact string                 `json:"weather_impact"`
	Impact        *commute.CommuteImpact `json:"impact,omitempty"`
	Signals       commute.Signals        `json:"signals"`
	Steps         []StepResult           `json:"steps"`
	Successful    bool                   `json:"successful"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// SucceededSteps counts the workflow steps that completed without error.
func (r *Recommendation) SucceededSteps() int {
	n := 0
	for _, s := range r.Steps {
		if s.Success {
			n++
		}
	}
	return n
}

type CacheEntry struct {
	Data      *Recommendation
	Timestamp time.Time
}

type Aggregator struct {
	weather  service.WeatherSource
	routes   service.RouteSource
	scraper  service.Scraper
	cache    map[string]*CacheEntry
	mutex    sync.RWMutex
	cacheTTL time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
}

func NewAggregator(weather service.WeatherSource, routes service.RouteSource, scraper service.Scraper,
	cacheTTL time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) *Aggregator {
	return &Aggregator{
		weather:  weather,
		routes:   routes,
		scraper:  scraper,
		cache:    make(map[string]*CacheEntry),
		cacheTTL: cacheTTL,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		tele:     tele,
	}
}

// SetMetricsRecorder sets the metrics recorder for the aggregator
func (a *Aggregator) SetMetricsRecorder(metrics MetricsRecorder) {
	a.metrics = metrics
}

func (a *Aggregator) SetClock(clock clockwork.Clock) {
	a.clock = clock
}

// CacheKey identifies a recommendation by its endpoints.
func CacheKey(origin, destination string) string {
	return origin + "|" + destination
}

// GetRecommendation serves a cached recommendation while it is fresh and
// runs the workflow otherwise. Only successful runs are cached.
func (a *Aggregator) GetRecommendation(ctx context.Context, origin, destination string) *Recommendation {
	ctx, span := a.tele.GetTracer().Start(ctx, "aggregator.GetRecommendation")
	defer span.End()

	reqLogger := logger.ForContext(ctx, a.logger)
	cacheKey := CacheKey(origin, destination)

	span.SetAttributes(
		attribute.String("origin", origin),
		attribute.String("destination", destination),
	)

	if cached := a.getFromCache(cacheKey); cached != nil {
		reqLogger.Debug("Cache hit", zap.String("cache_key", cacheKey))
		span.SetAttributes(attribute.Bool("cache_hit", true))

		if a.metrics != nil {
			a.metrics.RecordCacheHit(ctx, cacheType)
		}

		return cached
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))

	if a.metrics != nil {
		a.metrics.RecordCacheMiss(ctx, cacheType)
	}

	reqLogger.Info("Cache miss, running workflow", zap.String("cache_key", cacheKey))

	rec := a.Recommend(ctx, origin, destination)
	if rec.Successful {
		a.setCache(cacheKey, rec)
	}

	return rec
}

// Recommend runs the six workflow steps in order and derives a
// recommendation from whichever of them succeeded.
func (a *Aggregator) Recommend(ctx context.Context, origin, destination string) *Recommendation {
	ctx, span := a.tele.GetTracer().Start(ctx, "aggregator.Recommend")
	defer span.End()

	reqLogger := logger.ForContext(ctx, a.logger)

	var (
		current    *service.CurrentWeather
		forecast   *service.Forecast
		news       []service.Record
		social     []service.Record
		directions *service.DirectionsResponse
	)

	steps := []struct {
		name string
		run  func() error
	}{
		{StepCurrentWeather, func() (err error) {
			current, err = a.weather.Current(ctx)
			return err
		}},
		{StepForecast, func() (err error) {
			forecast, err = a.weather.Forecast(ctx)
			return err
		}},
		{StepNews, func() (err error) {
			news, err = a.scraper.Run(ctx, service.NewsJob().WithSessionPrefix("commute_news"))
			return err
		}},
		{StepSocial, func() (err error) {
			social, err = a.scraper.Run(ctx, service.SocialJob().WithSessionPrefix("commute_social"))
			return err
		}},
		{StepDirections, func() (err error) {
			directions, err = a.routes.Directions(ctx, service.DirectionsRequest{
				Origin:       origin,
				Destination:  destination,
				Alternatives: true,
				TrafficModel: "best_guess",
			})
			return err
		}},
		{StepGeocode, func() error {
			_, err := a.routes.Geocode(ctx, origin)
			return err
		}},
	}

	rec := &Recommendation{
		Origin:        origin,
		Destination:   destination,
		Route:         DefaultRoute,
		Duration:      DefaultDuration,
		Alerts:        []string{},
		WeatherImpact: DefaultWeatherImpact,
		GeneratedAt:   a.clock.Now().UTC(),
	}

	for _, step := range steps {
		result := StepResult{Name: step.name, Success: true}
		if err := step.run(); err != nil {
			result = StepResult{Name: step.name, Error: err.Error()}
			reqLogger.Warn("Workflow step failed", zap.String("step", step.name), zap.Error(err))
		}
		rec.Steps = append(rec.Steps, result)
	}

	if current != nil {
		upcomingRain := forecast != nil && forecast.UpcomingRain()
		switch {
		case current.IsRaining() || upcomingRain:
			rec.Alerts = append(rec.Alerts, RainAlert)
			rec.WeatherImpact = "Rain conditions"
			rec.Duration = rainDuration
			rec.Signals.RainAlert = true
		case current.Main.Temp > HotCelsius:
			rec.Alerts = append(rec.Alerts, HeatAlert)
			rec.WeatherImpact = "Hot conditions"
			rec.Signals.Heat = true
		default:
			rec.WeatherImpact = "Good weather conditions"
			rec.Signals.GoodWeather = true
		}

		if forecast != nil {
			impact := commute.Classify(service.ObservationFrom(current, forecast))
			rec.Impact = &impact
		}
	}

	if directions != nil && len(directions.Routes) > 0 {
		route := directions.Routes[0]
		rec.Route = route.Summary
		if rec.Route == "" {
			rec.Route = mainRoute
		}
		if d := route.FirstLeg().Duration.Text; d != "" {
			rec.Duration = d
		}
		rec.Signals.RouteFound = true
	}

	if len(news) > 0 {
		rec.Alerts = append(rec.Alerts, NewsAlert)
		rec.Signals.NewsFound = true
	}

	if len(social) > 0 {
		rec.Alerts = append(rec.Alerts, SocialAlert)
		rec.Signals.SocialFound = true
	}

	rec.Confidence = commute.Confidence(rec.Signals)
	rec.Successful = rec.SucceededSteps() >= MinSuccessfulSteps

	span.SetAttributes(
		attribute.Int("confidence", rec.Confidence),
		attribute.Int("steps_succeeded", rec.SucceededSteps()),
		attribute.Bool("success", rec.Successful),
	)

	reqLogger.Info("Recommendation ready",
		zap.String("route", rec.Route),
		zap.String("duration", rec.Duration),
		zap.Int("confidence", rec.Confidence),
		zap.Int("alerts", len(rec.Alerts)),
		zap.Bool("successful", rec.Successful))

	return rec
}

func (a *Aggregator) getFromCache(key string) *Recommendation {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	entry, exists := a.cache[key]
	if !exists {
		return nil
	}

	if a.clock.Since(entry.Timestamp) > a.cacheTTL {
		return nil
	}

	return entry.Data
}

func (a *Aggregator) setCache(key string, data *Recommendation) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.cache[key] = &CacheEntry{
		Data:      data,
		Timestamp: a.clock.Now(),
	}
}

func (a *Aggregator) ClearCache() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.cache = make(map[string]*CacheEntry)
}

func (a *Aggregator) GetCacheStats() map[string]interface{} {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	keys := make([]string, 0, len(a.cache))
	for key := range a.cache {
		keys = append(keys, key)
	}

	return map[string]interface{}{
		"cache_size": len(a.cache),
		"cache_ttl":  a.cacheTTL.String(),
		"cache_keys": keys,
	}
}
