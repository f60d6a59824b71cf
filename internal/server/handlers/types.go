package handlers

import (
	"github.com/vzahanych/smart-commute/internal/commute"
	"github.com/vzahanych/smart-commute/internal/server/utils"
)

// RecommendationRequest falls back to the configured home and office.
type RecommendationRequest struct {
	Origin      string `form:"origin" json:"origin" validate:"omitempty,max=200"`
	Destination string `form:"destination" json:"destination" validate:"omitempty,max=200"`
}

// ImpactRequest is a weather observation posted for classification.
// Visibility may be omitted, in which case it reads as clear.
type ImpactRequest struct {
	TemperatureCelsius   *float64 `json:"temperature_celsius" validate:"required"`
	IsRaining            bool     `json:"is_raining"`
	HasThunderstorm      bool     `json:"has_thunderstorm"`
	HasFog               bool     `json:"has_fog"`
	VisibilityMeters     *float64 `json:"visibility_meters"`
	WindSpeedMps         float64  `json:"wind_speed_mps"`
	UpcomingRain         bool     `json:"upcoming_rain"`
	UpcomingThunderstorm bool     `json:"upcoming_thunderstorm"`
}

const clearVisibility = 10000

func (r ImpactRequest) Observation() commute.WeatherObservation {
	visibility := float64(clearVisibility)
	if r.VisibilityMeters != nil {
		visibility = *r.VisibilityMeters
	}
	return commute.WeatherObservation{
		TemperatureCelsius:   *r.TemperatureCelsius,
		IsRaining:            r.IsRaining,
		HasThunderstorm:      r.HasThunderstorm,
		HasFog:               r.HasFog,
		VisibilityMeters:     visibility,
		WindSpeedMps:         r.WindSpeedMps,
		UpcomingRain:         r.UpcomingRain,
		UpcomingThunderstorm: r.UpcomingThunderstorm,
	}
}

type ImpactResponse struct {
	Observation commute.WeatherObservation `json:"observation"`
	Impact      commute.CommuteImpact      `json:"impact"`
	Rule        string                     `json:"rule"`
	AvoidAreas  []string                   `json:"avoid_areas,omitempty"`
}

type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code,omitempty"`
	Details string                  `json:"details,omitempty"`
	Fields  []utils.ValidationError `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Uptime    string   `json:"uptime"`
	Timestamp string   `json:"timestamp,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}
