package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/smart-commute/internal/commute"
	"github.com/vzahanych/smart-commute/internal/service"
	"go.uber.org/zap/zaptest"
)

var errDown = errors.New("service down")

type fakeWeather struct {
	mu         sync.Mutex
	current    *service.CurrentWeather
	forecast   *service.Forecast
	currentErr error
	forecastEr error
	calls      int
}

func (f *fakeWeather) Current(context.Context) (*service.CurrentWeather, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.current, nil
}

func (f *fakeWeather) Forecast(context.Context) (*service.Forecast, error) {
	if f.forecastEr != nil {
		return nil, f.forecastEr
	}
	return f.forecast, nil
}

func (f *fakeWeather) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRoutes struct {
	directions    *service.DirectionsResponse
	directionsErr error
	geocodeErr    error
	lastRequest   service.DirectionsRequest
}

func (f *fakeRoutes) Directions(_ context.Context, req service.DirectionsRequest) (*service.DirectionsResponse, error) {
	f.lastRequest = req
	if f.directionsErr != nil {
		return nil, f.directionsErr
	}
	return f.directions, nil
}

func (f *fakeRoutes) Geocode(context.Context, string) (*service.GeocodeResponse, error) {
	if f.geocodeErr != nil {
		return nil, f.geocodeErr
	}
	return &service.GeocodeResponse{Status: "OK", Results: []service.GeocodeResult{{PlaceID: "p"}}}, nil
}

func (f *fakeRoutes) PlacesAutocomplete(context.Context, service.PlacesRequest) (*service.AutocompleteResponse, error) {
	return &service.AutocompleteResponse{Status: "OK"}, nil
}

type fakeScraper struct {
	records map[string][]service.Record
	errs    map[string]error
}

func (f *fakeScraper) Run(_ context.Context, job service.Job) ([]service.Record, error) {
	if err := f.errs[job.Name]; err != nil {
		return nil, err
	}
	return f.records[job.Name], nil
}

type fakeMetrics struct {
	hits, misses int
}

func (f *fakeMetrics) RecordCacheHit(context.Context, string)  { f.hits++ }
func (f *fakeMetrics) RecordCacheMiss(context.Context, string) { f.misses++ }

func condition(main, description string) []service.Condition {
	return []service.Condition{{Main: main, Description: description}}
}

func clearWeather(temp float64) *fakeWeather {
	visibility := 8000.0
	return &fakeWeather{
		current: &service.CurrentWeather{
			Main:       service.Readings{Temp: temp},
			Weather:    condition("Clear", "clear sky"),
			Visibility: &visibility,
		},
		forecast: &service.Forecast{List: []service.ForecastSample{
			{Weather: condition("Clouds", "few clouds")},
			{Weather: condition("Clouds", "scattered clouds")},
		}},
	}
}

func hosurRoad() *fakeRoutes {
	return &fakeRoutes{directions: &service.DirectionsResponse{
		Status: "OK",
		Routes: []service.Route{{
			Summary: "Hosur Rd",
			Legs:    []service.Leg{{Duration: service.TextValue{Text: "38 mins"}}},
		}},
	}}
}

func busyFeeds() *fakeScraper {
	return &fakeScraper{records: map[string][]service.Record{
		"news":   {{"title": "Silk Board jam"}},
		"social": {{"text": "#BengaluruTraffic slow"}, {"text": "ORR crawling"}},
	}}
}

func newTestAggregator(t *testing.T, w service.WeatherSource, r service.RouteSource, s service.Scraper) *Aggregator {
	t.Helper()
	return NewAggregator(w, r, s, 5*time.Minute, zaptest.NewLogger(t), nil)
}

func TestRecommend_AllStepsSucceed(t *testing.T) {
	routes := hosurRoad()
	agg := newTestAggregator(t, clearWeather(27), routes, busyFeeds())

	rec := agg.Recommend(context.Background(), "Koramangala", "Electronic City")

	assert.True(t, rec.Successful)
	assert.Equal(t, 6, rec.SucceededSteps())
	assert.Equal(t, "Hosur Rd", rec.Route)
	assert.Equal(t, "38 mins", rec.Duration)
	assert.Equal(t, "Good weather conditions", rec.WeatherImpact)
	assert.Equal(t, []string{NewsAlert, SocialAlert}, rec.Alerts)
	assert.Equal(t, 95, rec.Confidence)
	require.NotNil(t, rec.Impact)
	assert.Equal(t, commute.SeverityNone, rec.Impact.Severity)

	assert.Equal(t, "best_guess", routes.lastRequest.TrafficModel)
	assert.True(t, routes.lastRequest.Alternatives)

	names := make([]string, 0, len(rec.Steps))
	for _, s := range rec.Steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StepCurrentWeather, StepForecast, StepNews, StepSocial, StepDirections, StepGeocode}, names)
}

func TestRecommend_GoodWeatherAndRouteOnly(t *testing.T) {
	agg := newTestAggregator(t, clearWeather(27), hosurRoad(), &fakeScraper{})

	rec := agg.Recommend(context.Background(), "a", "b")

	assert.Equal(t, 75, rec.Confidence)
	assert.Empty(t, rec.Alerts)
	assert.True(t, rec.Successful)
}

func TestRecommend_RainNow(t *testing.T) {
	weather := clearWeather(24)
	weather.current.Weather = condition("Rain", "light rain")

	agg := newTestAggregator(t, weather, &fakeRoutes{directionsErr: errDown}, &fakeScraper{})
	rec := agg.Recommend(context.Background(), "a", "b")

	assert.Equal(t, []string{RainAlert}, rec.Alerts)
	assert.Equal(t, "Rain conditions", rec.WeatherImpact)
	assert.Equal(t, "1h 15m", rec.Duration)
	assert.Equal(t, DefaultRoute, rec.Route)
	assert.Equal(t, 45, rec.Confidence)
	assert.True(t, rec.Signals.RainAlert)
}

func TestRecommend_UpcomingRainNeedsForecast(t *testing.T) {
	weather := clearWeather(24)
	weather.forecast.List[1].Weather = condition("Rain", "moderate rain")

	rec := newTestAggregator(t, weather, hosurRoad(), &fakeScraper{}).Recommend(context.Background(), "a", "b")
	assert.Equal(t, "Rain conditions", rec.WeatherImpact)
	assert.Equal(t, "38 mins", rec.Duration, "route duration overrides the rain estimate")

	weather.forecastEr = errDown
	rec = newTestAggregator(t, weather, hosurRoad(), &fakeScraper{}).Recommend(context.Background(), "a", "b")
	assert.Equal(t, "Good weather conditions", rec.WeatherImpact)
	assert.Nil(t, rec.Impact)
}

func TestRecommend_Heat(t *testing.T) {
	rec := newTestAggregator(t, clearWeather(36), &fakeRoutes{directionsErr: errDown}, &fakeScraper{}).
		Recommend(context.Background(), "a", "b")

	assert.Equal(t, []string{HeatAlert}, rec.Alerts)
	assert.Equal(t, "Hot conditions", rec.WeatherImpact)
	assert.Equal(t, 40, rec.Confidence)

	rec = newTestAggregator(t, clearWeather(35), &fakeRoutes{directionsErr: errDown}, &fakeScraper{}).
		Recommend(context.Background(), "a", "b")
	assert.Equal(t, "Good weather conditions", rec.WeatherImpact, "threshold is exclusive")
}

func TestRecommend_MissingSummaryUsesMainRoute(t *testing.T) {
	routes := hosurRoad()
	routes.directions.Routes[0].Summary = ""

	rec := newTestAggregator(t, clearWeather(27), routes, &fakeScraper{}).Recommend(context.Background(), "a", "b")
	assert.Equal(t, "Main Route", rec.Route)
}

func TestRecommend_Defaults(t *testing.T) {
	weather := &fakeWeather{currentErr: errDown, forecastEr: errDown}
	routes := &fakeRoutes{directionsErr: errDown, geocodeErr: errDown}
	scraper := &fakeScraper{errs: map[string]error{"news": errDown, "social": errDown}}

	rec := newTestAggregator(t, weather, routes, scraper).Recommend(context.Background(), "a", "b")

	assert.Equal(t, DefaultRoute, rec.Route)
	assert.Equal(t, DefaultDuration, rec.Duration)
	assert.Equal(t, DefaultWeatherImpact, rec.WeatherImpact)
	assert.Equal(t, commute.BaseConfidence, rec.Confidence)
	assert.Empty(t, rec.Alerts)
	assert.False(t, rec.Successful)
	for _, s := range rec.Steps {
		assert.False(t, s.Success)
		assert.Equal(t, "service down", s.Error)
	}
}

func TestRecommend_SuccessThreshold(t *testing.T) {
	// weather, forecast, news, social succeed; directions and geocode fail
	routes := &fakeRoutes{directionsErr: errDown, geocodeErr: errDown}
	rec := newTestAggregator(t, clearWeather(27), routes, &fakeScraper{}).Recommend(context.Background(), "a", "b")
	assert.Equal(t, 4, rec.SucceededSteps())
	assert.True(t, rec.Successful)

	scraper := &fakeScraper{errs: map[string]error{"news": errDown}}
	rec = newTestAggregator(t, clearWeather(27), routes, scraper).Recommend(context.Background(), "a", "b")
	assert.Equal(t, 3, rec.SucceededSteps())
	assert.False(t, rec.Successful)
}

func TestGetRecommendation_CachesWithinTTL(t *testing.T) {
	weather := clearWeather(27)
	agg := newTestAggregator(t, weather, hosurRoad(), busyFeeds())
	clock := clockwork.NewFakeClock()
	agg.SetClock(clock)
	metrics := &fakeMetrics{}
	agg.SetMetricsRecorder(metrics)

	first := agg.GetRecommendation(context.Background(), "a", "b")
	second := agg.GetRecommendation(context.Background(), "a", "b")

	assert.Same(t, first, second)
	assert.Equal(t, 1, weather.Calls())
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)

	clock.Advance(5*time.Minute + time.Second)
	third := agg.GetRecommendation(context.Background(), "a", "b")

	assert.NotSame(t, first, third)
	assert.Equal(t, 2, weather.Calls())
	assert.Equal(t, 2, metrics.misses)
}

func TestGetRecommendation_KeyedByEndpoints(t *testing.T) {
	weather := clearWeather(27)
	agg := newTestAggregator(t, weather, hosurRoad(), busyFeeds())

	agg.GetRecommendation(context.Background(), "a", "b")
	agg.GetRecommendation(context.Background(), "a", "c")

	assert.Equal(t, 2, weather.Calls())
	assert.Equal(t, 2, agg.GetCacheStats()["cache_size"])
}

func TestGetRecommendation_UnsuccessfulNotCached(t *testing.T) {
	weather := &fakeWeather{currentErr: errDown, forecastEr: errDown}
	agg := newTestAggregator(t, weather, &fakeRoutes{directionsErr: errDown, geocodeErr: errDown}, &fakeScraper{})

	agg.GetRecommendation(context.Background(), "a", "b")
	agg.GetRecommendation(context.Background(), "a", "b")

	assert.Equal(t, 2, weather.Calls())
	assert.Equal(t, 0, agg.GetCacheStats()["cache_size"])
}

func TestClearCache(t *testing.T) {
	agg := newTestAggregator(t, clearWeather(27), hosurRoad(), busyFeeds())
	agg.GetRecommendation(context.Background(), "a", "b")
	require.Equal(t, 1, agg.GetCacheStats()["cache_size"])

	agg.ClearCache()

	stats := agg.GetCacheStats()
	if stats["cache_size"].(int) != 0 {
		t.Errorf("Expected empty cache after clear, got %v", stats["cache_size"])
	}
	assert.Equal(t, "5m0s", stats["cache_ttl"])
}
