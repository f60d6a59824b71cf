package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vzahanych/smart-commute/internal/aggregator"
	"github.com/vzahanych/smart-commute/internal/commute"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/service"
)

// Pass thresholds per suite.
const (
	WeatherThreshold  = 3
	MapsThreshold     = 4
	ScrapeThreshold   = 3
	CombinedThreshold = 4
)

// forecastPreview is how many forecast samples are listed (12 hours).
const forecastPreview = 4

const sampleTextLimit = 100

// WeatherAPI is what the weather suite exercises.
type WeatherAPI interface {
	service.WeatherSource
	service.WeatherProvider
	ProbeQuota(ctx context.Context, n int) (*service.QuotaProbe, error)
}

// Recommender runs the commute workflow once.
type Recommender interface {
	Recommend(ctx context.Context, origin, destination string) *aggregator.Recommendation
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func CurrentWeatherCheck(w service.WeatherSource) Check {
	const name = "Current weather"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		cur, err := w.Current(ctx)
		if err != nil {
			return Fail(name, err)
		}
		return Pass(name,
			fmt.Sprintf("Temperature: %.1f°C", cur.Main.Temp),
			fmt.Sprintf("Condition: %s", cur.Condition().Description),
			fmt.Sprintf("Humidity: %.0f%%", cur.Main.Humidity),
			fmt.Sprintf("Visibility: %.0fm", cur.VisibilityMeters()),
			fmt.Sprintf("Wind speed: %.1f m/s", cur.WindSpeed()),
			"Rain: "+yesNo(cur.IsRaining(), "RAINING", "no rain"),
			"Thunderstorm: "+yesNo(cur.HasThunderstorm(), "YES", "no"),
			"Fog/mist: "+yesNo(cur.HasFog(), "YES", "no"),
		)
	}}
}

func ForecastCheck(w service.WeatherSource, loc *time.Location) Check {
	const name = "Forecast"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		fc, err := w.Forecast(ctx)
		if err != nil {
			return Fail(name, err)
		}
		details := []string{
			fmt.Sprintf("Forecast periods: %d", len(fc.List)),
			"Rain in next 6h: " + yesNo(fc.UpcomingRain(), "EXPECTED", "not expected"),
			"Thunderstorm in next 6h: " + yesNo(fc.UpcomingThunderstorm(), "EXPECTED", "not expected"),
		}
		for i, s := range fc.List {
			if i == forecastPreview {
				break
			}
			at := time.Unix(s.Dt, 0).In(loc).Format("15:04")
			cond := ""
			if len(s.Weather) > 0 {
				cond = s.Weather[0].Main
			}
			details = append(details, fmt.Sprintf("  %s: %s %.0f°C", at, cond, s.Main.Temp))
		}
		return Pass(name, details...)
	}}
}

// CommuteImpactCheck classifies the live observation.
func CommuteImpactCheck(w service.WeatherProvider) Check {
	const name = "Commute impact"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		obs, err := w.Observation(ctx)
		if err != nil {
			return Fail(name, fmt.Errorf("cannot assess weather impact: %w", err))
		}
		impact := commute.Classify(obs)
		details := []string{
			"Impact: " + impact.ImpactLabel,
			fmt.Sprintf("Extra time needed: %d minutes", impact.ExtraTimeMinutes),
			"Severity: " + strings.ToUpper(string(impact.Severity)),
			fmt.Sprintf("Temperature: %.1f°C", obs.TemperatureCelsius),
			fmt.Sprintf("Visibility: %.0fm", obs.VisibilityMeters),
			fmt.Sprintf("Wind speed: %.1f m/s", obs.WindSpeedMps),
		}
		for i, rec := range impact.Recommendations {
			details = append(details, fmt.Sprintf("  %d. %s", i+1, rec))
		}
		if areas := commute.AvoidAreas(impact.Severity); len(areas) > 0 {
			details = append(details, "Areas to avoid:")
			for _, a := range areas {
				details = append(details, "  - "+a)
			}
		}
		return Pass(name, details...)
	}}
}

func QuotaCheck(w WeatherAPI, n int) Check {
	const name = "Quota probe"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		qp, err := w.ProbeQuota(ctx, n)
		if err != nil {
			return Fail(name, err)
		}
		return Pass(name,
			fmt.Sprintf("%d requests completed in %s", qp.Requests, qp.Total.Round(time.Millisecond)),
			fmt.Sprintf("Average response time: %s", qp.Average.Round(time.Millisecond)),
		)
	}}
}

func WeatherSuite(w WeatherAPI, probeRequests int, loc *time.Location) Suite {
	return Suite{
		Title: "OpenWeatherMap API",
		Checks: []Check{
			CurrentWeatherCheck(w),
			ForecastCheck(w, loc),
			CommuteImpactCheck(w),
			QuotaCheck(w, probeRequests),
		},
		PassThreshold: WeatherThreshold,
		OnPass:        []string{"Weather API integration is ready"},
		OnFail: []string{
			"API key not activated yet (wait 10-60 minutes after signup)",
			"Invalid API key format (check for typos or spaces)",
			"Network connectivity issues",
			"Rate limit exceeded (wait a few minutes)",
			`City name format issues (try "Bangalore,IN")`,
		},
	}
}

func DirectionsCheck(r service.RouteSource, c config.CommuteConfig) Check {
	const name = "Directions"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		resp, err := r.Directions(ctx, service.DirectionsRequest{
			Origin:       c.HomeAddress,
			Destination:  c.OfficeAddress,
			Alternatives: true,
			TrafficModel: "best_guess",
		})
		if err == nil && len(resp.Routes) == 0 {
			err = service.ErrNoRoutes
		}
		if err != nil {
			return Fail(name, err)
		}
		route := resp.Routes[0]
		leg := route.FirstLeg()
		details := []string{
			fmt.Sprintf("Routes found: %d", len(resp.Routes)),
			"Duration: " + leg.Duration.Text,
			"Distance: " + leg.Distance.Text,
		}
		if leg.DurationInTraffic != nil {
			details = append(details, "Duration in traffic: "+leg.DurationInTraffic.Text)
		} else {
			details = append(details, "No traffic data (might be off-peak)")
		}
		details = append(details, "Summary: "+route.Summary)
		if len(resp.Routes) > 1 {
			details = append(details, fmt.Sprintf("Alternative routes: %d", len(resp.Routes)-1))
		}
		return Pass(name, details...)
	}}
}

func GeocodeCheck(r service.RouteSource, address string) Check {
	const name = "Geocoding"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		resp, err := r.Geocode(ctx, address)
		if err == nil && len(resp.Results) == 0 {
			err = service.ErrNoResults
		}
		if err != nil {
			return Fail(name, err)
		}
		res := resp.Results[0]
		loc := res.Geometry.Location
		return Pass(name,
			"Address: "+res.FormattedAddress,
			fmt.Sprintf("Coordinates: %.6f, %.6f", loc.Lat, loc.Lng),
			"Place ID: "+res.PlaceID,
		)
	}}
}

// MultipleRoutesCheck compares the commute avoiding highways and tolls. Both
// variants must succeed.
func MultipleRoutesCheck(r service.RouteSource, c config.CommuteConfig) Check {
	const name = "Multiple routes"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		var details []string
		for _, avoid := range []string{"highways", "tolls"} {
			resp, err := r.Directions(ctx, service.DirectionsRequest{
				Origin:       c.HomeAddress,
				Destination:  c.OfficeAddress,
				Avoid:        avoid,
				Alternatives: true,
			})
			if err == nil && len(resp.Routes) == 0 {
				err = service.ErrNoRoutes
			}
			if err != nil {
				return Fail(name, fmt.Errorf("avoid %s: %w", avoid, err))
			}
			details = append(details, fmt.Sprintf("Avoiding %s: %s", avoid, resp.Routes[0].FirstLeg().Duration.Text))
		}
		return Pass(name, details...)
	}}
}

func PlacesCheck(r service.RouteSource, c config.CommuteConfig) Check {
	const name = "Places"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		resp, err := r.PlacesAutocomplete(ctx, service.PlacesRequest{
			Input:    c.PlacesQuery,
			Location: c.PlacesLocation,
			Radius:   c.PlacesRadius,
		})
		if err != nil {
			return Fail(name, err)
		}
		details := []string{fmt.Sprintf("Suggestions found: %d", len(resp.Predictions))}
		for i, p := range resp.Predictions {
			if i == 3 {
				break
			}
			details = append(details, fmt.Sprintf("  %d. %s", i+1, p.Description))
		}
		return Pass(name, details...)
	}}
}

func MapsSuite(r service.RouteSource, c config.CommuteConfig) Suite {
	return Suite{
		Title: "Google Maps API",
		Checks: []Check{
			DirectionsCheck(r, c),
			GeocodeCheck(r, c.HomeAddress),
			MultipleRoutesCheck(r, c),
			PlacesCheck(r, c),
		},
		PassThreshold: MapsThreshold,
		OnPass: []string{
			"Google Maps API is ready",
			"Set up billing alerts in Google Cloud Console",
		},
		OnFail: []string{
			"API key might need a few minutes to activate",
			"Check that the Directions, Geocoding and Places APIs are enabled",
			"Verify API key restrictions (referrers, IP addresses)",
			"Ensure billing is enabled (required even for the free tier)",
			"Check quota limits and usage",
		},
	}
}

// ScrapeCheck runs a job and reports the record count and a sample field.
func ScrapeCheck(s service.Scraper, name string, job service.Job, sampleField string) Check {
	return Check{Name: name, Run: func(ctx context.Context) Result {
		records, err := s.Run(ctx, job)
		if err != nil {
			return Fail(name, err)
		}
		sample := "none"
		if len(records) > 0 {
			sample = records[0].String(sampleField)
			if r := []rune(sample); len(r) > sampleTextLimit {
				sample = string(r[:sampleTextLimit])
			}
		}
		return Pass(name,
			fmt.Sprintf("%s found: %d", job.List, len(records)),
			"Sample: "+sample,
		)
	}}
}

func ScrapeSuite(s service.Scraper) Suite {
	return Suite{
		Title: "Bright Data API",
		Checks: []Check{
			ScrapeCheck(s, "News scraping", service.NewsJob(), "title"),
			ScrapeCheck(s, "Social media", service.SocialJob(), "text"),
			ScrapeCheck(s, "Official traffic", service.OfficialTrafficJob(), "title"),
		},
		PassThreshold: ScrapeThreshold,
		OnPass:        []string{"Bright Data setup is ready"},
		OnFail: []string{
			"Your API token is correct and active",
			"Your Bright Data zone is properly configured",
			"You have sufficient credits or quota",
			"The target websites are accessible",
		},
	}
}

var errWorkflowIncomplete = errors.New("workflow incomplete")

// WorkflowCheck simulates one workflow run. A successful recommendation is
// handed to publish when it is set; a publish failure is reported but does
// not fail the check.
func WorkflowCheck(rec Recommender, origin, destination string,
	publish func(context.Context, *aggregator.Recommendation) error) Check {
	const name = "Workflow simulation"
	return Check{Name: name, Run: func(ctx context.Context) Result {
		r := rec.Recommend(ctx, origin, destination)
		details := []string{
			"Route: " + r.Route,
			"Duration: " + r.Duration,
			fmt.Sprintf("Confidence: %d%%", r.Confidence),
			"Weather impact: " + r.WeatherImpact,
		}
		for _, a := range r.Alerts {
			details = append(details, "Alert: "+a)
		}
		steps := fmt.Sprintf("Steps succeeded: %d/%d", r.SucceededSteps(), len(r.Steps))
		details = append(details, steps)

		if !r.Successful {
			return Fail(name, fmt.Errorf("%w: %d of %d steps succeeded, %d needed",
				errWorkflowIncomplete, r.SucceededSteps(), len(r.Steps), aggregator.MinSuccessfulSteps), details...)
		}

		if publish != nil {
			if err := publish(ctx, r); err != nil {
				details = append(details, "Publish failed: "+err.Error())
			} else {
				details = append(details, "Published recommendation")
			}
		}
		return Pass(name, details...)
	}}
}

func CombinedSuite(w service.WeatherSource, r service.RouteSource, s service.Scraper,
	c config.CommuteConfig, loc *time.Location, workflow Check) Suite {
	return Suite{
		Title: "Smart Commute complete API test",
		Checks: []Check{
			CurrentWeatherCheck(w),
			ForecastCheck(w, loc),
			ScrapeCheck(s, "Bright Data news", service.NewsJob(), "title"),
			ScrapeCheck(s, "Bright Data social", service.SocialJob(), "text"),
			DirectionsCheck(r, c),
			GeocodeCheck(r, c.HomeAddress),
		},
		Required:      []Check{workflow},
		PassThreshold: CombinedThreshold,
		OnPass: []string{
			"Smart commute assistant is ready",
			"Set the home and office addresses",
			"Configure notifications",
			"Enable the refresher (server.refresh_interval)",
		},
		OnFail: []string{
			"API credentials are correct",
			"APIs are enabled in the respective dashboards",
			"Network connectivity is stable",
			"Rate limits are not exceeded",
			"API keys are activated (weather: 10-60 minute delay)",
		},
	}
}
