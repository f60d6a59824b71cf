package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vzahanych/smart-commute/internal/commute"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	openWeatherName = "openweather"

	// upcomingSamples is how many 3-hour forecast samples count as "upcoming".
	upcomingSamples = 2

	// defaultVisibility is reported when the API omits visibility.
	defaultVisibility = 10000
)

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type Readings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
}

type CurrentWeather struct {
	Name       string      `json:"name"`
	Main       Readings    `json:"main"`
	Weather    []Condition `json:"weather"`
	Visibility *float64    `json:"visibility"`
	Wind       *Wind       `json:"wind"`
}

type ForecastSample struct {
	Dt      int64       `json:"dt"`
	Main    Readings    `json:"main"`
	Weather []Condition `json:"weather"`
}

type Forecast struct {
	Count int              `json:"cnt"`
	List  []ForecastSample `json:"list"`
}

// QuotaProbe summarises a burst of identical current-weather requests.
type QuotaProbe struct {
	Requests int
	Total    time.Duration
	Average  time.Duration
}

func primary(conds []Condition) Condition {
	if len(conds) == 0 {
		return Condition{}
	}
	return conds[0]
}

func (c Condition) isRain() bool {
	return strings.Contains(strings.ToLower(c.Main), "rain")
}

func (c Condition) isThunderstorm() bool {
	return strings.Contains(strings.ToLower(c.Main), "thunderstorm")
}

func (c Condition) isFog() bool {
	d := strings.ToLower(c.Description)
	return strings.Contains(d, "fog") || strings.Contains(d, "mist")
}

func (w *CurrentWeather) Condition() Condition { return primary(w.Weather) }

func (w *CurrentWeather) IsRaining() bool       { return w.Condition().isRain() }
func (w *CurrentWeather) HasThunderstorm() bool { return w.Condition().isThunderstorm() }
func (w *CurrentWeather) HasFog() bool          { return w.Condition().isFog() }

func (w *CurrentWeather) WindSpeed() float64 {
	if w.Wind == nil {
		return 0
	}
	return w.Wind.Speed
}

func (w *CurrentWeather) VisibilityMeters() float64 {
	if w.Visibility == nil {
		return defaultVisibility
	}
	return *w.Visibility
}

// Upcoming returns the samples covering the next six hours.
func (f *Forecast) Upcoming() []ForecastSample {
	if len(f.List) <= upcomingSamples {
		return f.List
	}
	return f.List[:upcomingSamples]
}

func (f *Forecast) UpcomingRain() bool {
	for _, s := range f.Upcoming() {
		if primary(s.Weather).isRain() {
			return true
		}
	}
	return false
}

func (f *Forecast) UpcomingThunderstorm() bool {
	for _, s := range f.Upcoming() {
		if primary(s.Weather).isThunderstorm() {
			return true
		}
	}
	return false
}

// ObservationFrom derives the classifier input from raw API responses.
func ObservationFrom(current *CurrentWeather, forecast *Forecast) commute.WeatherObservation {
	return commute.WeatherObservation{
		TemperatureCelsius:   current.Main.Temp,
		IsRaining:            current.IsRaining(),
		HasThunderstorm:      current.HasThunderstorm(),
		HasFog:               current.HasFog(),
		VisibilityMeters:     current.VisibilityMeters(),
		WindSpeedMps:         current.WindSpeed(),
		UpcomingRain:         forecast.UpcomingRain(),
		UpcomingThunderstorm: forecast.UpcomingThunderstorm(),
	}
}

type OpenWeatherService struct {
	baseURL       string
	apiKey        string
	city          string
	units         string
	forecastCount int
	http          transport
	logger        *zap.Logger
	tele          *telemetry.Telemetry
}

func NewOpenWeatherService(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenWeatherService {
	return &OpenWeatherService{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		city:          cfg.City,
		units:         cfg.Units,
		forecastCount: cfg.ForecastCount,
		http:          newTransport(openWeatherName, time.Duration(cfg.Timeout)*time.Second),
		logger:        logger.With(zap.String("service", openWeatherName)),
		tele:          tele,
	}
}

func (s *OpenWeatherService) Name() string {
	return openWeatherName
}

func (s *OpenWeatherService) SetClock(clock clockwork.Clock) {
	s.http.clock = clock
}

func (s *OpenWeatherService) SetMetricsRecorder(metrics CallRecorder) {
	s.http.metrics = metrics
}

func (s *OpenWeatherService) query() url.Values {
	q := url.Values{}
	q.Set("q", s.city)
	q.Set("appid", s.apiKey)
	q.Set("units", s.units)
	return q
}

func (s *OpenWeatherService) Current(ctx context.Context) (weather *CurrentWeather, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "openweather.Current")
	defer func() { telemetry.EndSpan(span, err, attribute.String("city", s.city)) }()

	weather = &CurrentWeather{}
	if err = s.http.get(ctx, s.baseURL+"/weather?"+s.query().Encode(), weather); err != nil {
		return nil, fmt.Errorf("current weather: %w", err)
	}

	s.logger.Debug("Current weather fetched",
		zap.Float64("temp", weather.Main.Temp),
		zap.String("condition", weather.Condition().Description))

	return weather, nil
}

func (s *OpenWeatherService) Forecast(ctx context.Context) (forecast *Forecast, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "openweather.Forecast")
	defer func() { telemetry.EndSpan(span, err, attribute.String("city", s.city)) }()

	q := s.query()
	q.Set("cnt", strconv.Itoa(s.forecastCount))

	forecast = &Forecast{}
	if err = s.http.get(ctx, s.baseURL+"/forecast?"+q.Encode(), forecast); err != nil {
		return nil, fmt.Errorf("weather forecast: %w", err)
	}

	s.logger.Debug("Forecast fetched", zap.Int("periods", len(forecast.List)))

	return forecast, nil
}

// Observation fetches current conditions, then the forecast.
func (s *OpenWeatherService) Observation(ctx context.Context) (commute.WeatherObservation, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return commute.WeatherObservation{}, err
	}
	forecast, err := s.Forecast(ctx)
	if err != nil {
		return commute.WeatherObservation{}, err
	}
	return ObservationFrom(current, forecast), nil
}

// ProbeQuota fires n identical current-weather requests at once and waits
// for all of them. Any failure fails the probe; the remaining requests are
// left to finish.
func (s *OpenWeatherService) ProbeQuota(ctx context.Context, n int) (probe *QuotaProbe, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "openweather.ProbeQuota")
	defer func() { telemetry.EndSpan(span, err, attribute.Int("requests", n)) }()

	if n < 1 {
		return nil, fmt.Errorf("quota probe needs at least one request, got %d", n)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)

	start := s.http.clock.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Current(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := s.http.clock.Since(start)

	if errs != nil {
		failed := len(multierr.Errors(errs))
		s.logger.Warn("Quota probe failed", zap.Int("failed", failed), zap.Int("requests", n), zap.Error(errs))
		return nil, fmt.Errorf("quota probe: %d of %d requests failed: %w", failed, n, errs)
	}

	return &QuotaProbe{
		Requests: n,
		Total:    total,
		Average:  total / time.Duration(n),
	}, nil
}
