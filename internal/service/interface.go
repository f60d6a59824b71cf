package service

import (
	"context"

	"github.com/vzahanych/smart-commute/internal/commute"
)

// WeatherProvider is the minimal collaborator the classifier needs.
type WeatherProvider interface {
	Observation(ctx context.Context) (commute.WeatherObservation, error)
}

type WeatherSource interface {
	Current(ctx context.Context) (*CurrentWeather, error)
	Forecast(ctx context.Context) (*Forecast, error)
}

type RouteSource interface {
	Directions(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	Geocode(ctx context.Context, address string) (*GeocodeResponse, error)
	PlacesAutocomplete(ctx context.Context, req PlacesRequest) (*AutocompleteResponse, error)
}

type Scraper interface {
	Run(ctx context.Context, job Job) ([]Record, error)
}
