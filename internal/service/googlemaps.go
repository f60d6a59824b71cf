package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	googleMapsName = "google-maps"
	statusOK       = "OK"
)

type DirectionsRequest struct {
	Origin       string
	Destination  string
	Alternatives bool
	// Avoid is passed through as-is, e.g. "highways" or "tolls".
	Avoid        string
	TrafficModel string
}

type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type Leg struct {
	StartAddress      string     `json:"start_address"`
	EndAddress        string     `json:"end_address"`
	Distance          TextValue  `json:"distance"`
	Duration          TextValue  `json:"duration"`
	DurationInTraffic *TextValue `json:"duration_in_traffic"`
}

type Route struct {
	Summary string `json:"summary"`
	Legs    []Leg  `json:"legs"`
}

// FirstLeg returns the route's first leg, or a zero Leg.
func (r Route) FirstLeg() Leg {
	if len(r.Legs) == 0 {
		return Leg{}
	}
	return r.Legs[0]
}

type DirectionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Routes       []Route `json:"routes"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type GeocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	PlaceID          string `json:"place_id"`
	Geometry         struct {
		Location LatLng `json:"location"`
	} `json:"geometry"`
}

type GeocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []GeocodeResult `json:"results"`
}

type PlacesRequest struct {
	Input    string
	Location string
	Radius   int
}

type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

type AutocompleteResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Predictions  []Prediction `json:"predictions"`
}

var (
	ErrNoRoutes  = errors.New("no routes returned")
	ErrNoResults = errors.New("no geocoding results returned")
)

type GoogleMapsService struct {
	baseURL string
	apiKey  string
	http    transport
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewGoogleMapsService(cfg config.MapsConfig, logger *zap.Logger, tele *telemetry.Telemetry) *GoogleMapsService {
	return &GoogleMapsService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    newTransport(googleMapsName, time.Duration(cfg.Timeout)*time.Second),
		logger:  logger.With(zap.String("service", googleMapsName)),
		tele:    tele,
	}
}

func (s *GoogleMapsService) Name() string {
	return googleMapsName
}

func (s *GoogleMapsService) SetClock(clock clockwork.Clock) {
	s.http.clock = clock
}

func (s *GoogleMapsService) SetMetricsRecorder(metrics CallRecorder) {
	s.http.metrics = metrics
}

// checkStatus turns a non-OK Maps status into an APIError.
func checkStatus(status, message string) error {
	if status == statusOK {
		return nil
	}
	return &APIError{
		Service:    googleMapsName,
		StatusCode: http.StatusOK,
		Status:     status,
		Message:    message,
	}
}

func (s *GoogleMapsService) call(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("key", s.apiKey)
	return s.http.get(ctx, s.baseURL+path+"?"+q.Encode(), out)
}

// Directions always departs now.
func (s *GoogleMapsService) Directions(ctx context.Context, req DirectionsRequest) (resp *DirectionsResponse, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "googlemaps.Directions")
	defer func() {
		telemetry.EndSpan(span, err,
			attribute.String("origin", req.Origin),
			attribute.String("destination", req.Destination),
			attribute.String("avoid", req.Avoid))
	}()

	q := url.Values{}
	q.Set("origin", req.Origin)
	q.Set("destination", req.Destination)
	q.Set("alternatives", strconv.FormatBool(req.Alternatives))
	q.Set("departure_time", "now")
	if req.TrafficModel != "" {
		q.Set("traffic_model", req.TrafficModel)
	}
	if req.Avoid != "" {
		q.Set("avoid", req.Avoid)
	}

	resp = &DirectionsResponse{}
	if err = s.call(ctx, "/directions/json", q, resp); err != nil {
		return nil, fmt.Errorf("directions: %w", err)
	}
	if err = checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, fmt.Errorf("directions: %w", err)
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("directions: %w", ErrNoRoutes)
	}

	s.logger.Debug("Directions fetched",
		zap.Int("routes", len(resp.Routes)),
		zap.String("duration", resp.Routes[0].FirstLeg().Duration.Text))

	return resp, nil
}

func (s *GoogleMapsService) Geocode(ctx context.Context, address string) (resp *GeocodeResponse, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "googlemaps.Geocode")
	defer func() { telemetry.EndSpan(span, err, attribute.String("address", address)) }()

	q := url.Values{}
	q.Set("address", address)

	resp = &GeocodeResponse{}
	if err = s.call(ctx, "/geocode/json", q, resp); err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	if err = checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("geocode: %w", ErrNoResults)
	}

	return resp, nil
}

func (s *GoogleMapsService) PlacesAutocomplete(ctx context.Context, req PlacesRequest) (resp *AutocompleteResponse, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "googlemaps.PlacesAutocomplete")
	defer func() { telemetry.EndSpan(span, err, attribute.String("input", req.Input)) }()

	q := url.Values{}
	q.Set("input", req.Input)
	if req.Location != "" {
		q.Set("location", req.Location)
	}
	if req.Radius > 0 {
		q.Set("radius", strconv.Itoa(req.Radius))
	}

	resp = &AutocompleteResponse{}
	if err = s.call(ctx, "/place/autocomplete/json", q, resp); err != nil {
		return nil, fmt.Errorf("places autocomplete: %w", err)
	}
	if err = checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, fmt.Errorf("places autocomplete: %w", err)
	}

	return resp, nil
}
