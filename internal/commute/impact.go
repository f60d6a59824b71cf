// Package commute turns weather observations into commute advice.
//
// Classify maps a WeatherObservation to a CommuteImpact through an ordered
// rule table: the first rule whose predicate holds decides the severity,
// the extra travel time and the advisories. The table order is the priority:
//
//	thunderstorm > sustained rain > transient rain > low visibility >
//	heat > cold > wind > normal
//
// Confidence scores the workflow's recommendation from the signals that were
// available when it was assembled.
package commute

// Severity grades how much the weather disrupts the commute.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeveritySevere   Severity = "severe"
)

// LowVisibilityMeters is the visibility below which fog rules apply.
const LowVisibilityMeters = 3000

// WeatherObservation is the classifier input, built from the current
// conditions and the next two forecast samples.
type WeatherObservation struct {
	TemperatureCelsius   float64 `json:"temperature_celsius"`
	IsRaining            bool    `json:"is_raining"`
	HasThunderstorm      bool    `json:"has_thunderstorm"`
	HasFog               bool    `json:"has_fog"`
	VisibilityMeters     float64 `json:"visibility_meters"`
	WindSpeedMps         float64 `json:"wind_speed_mps"`
	UpcomingRain         bool    `json:"upcoming_rain"`
	UpcomingThunderstorm bool    `json:"upcoming_thunderstorm"`
}

// CommuteImpact is the classifier output.
type CommuteImpact struct {
	Severity         Severity `json:"severity"`
	ExtraTimeMinutes int      `json:"extra_time_minutes"`
	ImpactLabel      string   `json:"impact_label"`
	Recommendations  []string `json:"recommendations"`
}

// Rule pairs a predicate with the impact it produces.
type Rule struct {
	Name   string
	When   func(WeatherObservation) bool
	Impact CommuteImpact
}

// Rules is evaluated top to bottom; the last rule always matches.
var Rules = []Rule{
	{
		Name: "thunderstorm",
		When: func(o WeatherObservation) bool { return o.HasThunderstorm || o.UpcomingThunderstorm },
		Impact: CommuteImpact{
			Severity:         SeveritySevere,
			ExtraTimeMinutes: 60,
			ImpactLabel:      "SEVERE: Thunderstorm conditions",
			Recommendations: []string{
				"Consider working from home",
				"Avoid Electronic City flyovers during lightning",
				"If driving, avoid low-lying areas",
			},
		},
	},
	{
		Name: "sustained-rain",
		When: func(o WeatherObservation) bool { return o.IsRaining && o.UpcomingRain },
		Impact: CommuteImpact{
			Severity:         SeverityMajor,
			ExtraTimeMinutes: 45,
			ImpactLabel:      "MAJOR: Continuous rain expected",
			Recommendations: []string{
				"Leave 45+ minutes early",
				"Avoid Silk Board and KR Puram (waterlogging prone)",
				"Use elevated roads (metro routes) if possible",
			},
		},
	},
	{
		Name: "rain",
		When: func(o WeatherObservation) bool { return o.IsRaining || o.UpcomingRain },
		Impact: CommuteImpact{
			Severity:         SeverityModerate,
			ExtraTimeMinutes: 25,
			ImpactLabel:      "MODERATE: Rain during commute",
			Recommendations: []string{
				"Leave 25 minutes early",
				"Drive slowly and maintain distance",
				"Turn on headlights",
			},
		},
	},
	{
		Name: "low-visibility",
		When: func(o WeatherObservation) bool { return o.HasFog || o.VisibilityMeters < LowVisibilityMeters },
		Impact: CommuteImpact{
			Severity:         SeverityModerate,
			ExtraTimeMinutes: 20,
			ImpactLabel:      "MODERATE: Low visibility conditions",
			Recommendations: []string{
				"Use fog lights and hazard lights",
				"Drive very slowly",
				"Share live location with family",
			},
		},
	},
	{
		Name: "heat",
		When: func(o WeatherObservation) bool { return o.TemperatureCelsius > 38 },
		Impact: CommuteImpact{
			Severity:         SeverityMinor,
			ExtraTimeMinutes: 10,
			ImpactLabel:      "MINOR: Extreme heat affecting traffic",
			Recommendations: []string{
				"Use AC - may cause traffic due to overheating vehicles",
				"Carry water",
				"Avoid 12-3 PM if possible",
			},
		},
	},
	{
		Name: "cold",
		When: func(o WeatherObservation) bool { return o.TemperatureCelsius < 15 },
		Impact: CommuteImpact{
			Severity:         SeverityMinor,
			ExtraTimeMinutes: 5,
			ImpactLabel:      "MINOR: Cold weather (rare in Bangalore!)",
			Recommendations: []string{
				"Dress warmly",
				"Check for unusual weather patterns",
			},
		},
	},
	{
		Name: "wind",
		When: func(o WeatherObservation) bool { return o.WindSpeedMps > 10 },
		Impact: CommuteImpact{
			Severity:         SeverityMinor,
			ExtraTimeMinutes: 10,
			ImpactLabel:      "MINOR: Strong winds",
			Recommendations: []string{
				"Watch for falling branches",
				"Two-wheeler riders be extra careful",
			},
		},
	},
	{
		Name: "normal",
		When: func(WeatherObservation) bool { return true },
		Impact: CommuteImpact{
			Severity:         SeverityNone,
			ExtraTimeMinutes: 0,
			ImpactLabel:      "OPTIMAL: Perfect driving conditions",
			Recommendations: []string{
				"Normal commute expected",
				"Stick to regular departure time",
			},
		},
	},
}

// Match returns the first rule that applies to the observation.
func Match(o WeatherObservation) Rule {
	for _, r := range Rules {
		if r.When(o) {
			return r
		}
	}
	return Rules[len(Rules)-1]
}

// Classify returns the commute impact of the observation. The returned
// recommendations are a copy and may be modified by the caller.
func Classify(o WeatherObservation) CommuteImpact {
	impact := Match(o).Impact
	impact.Recommendations = append([]string(nil), impact.Recommendations...)
	return impact
}

var avoidAreas = []string{
	"Silk Board Junction (severe waterlogging)",
	"KR Puram Bridge area (flooding)",
	"Marathahalli Bridge (water accumulation)",
	"Electronic City flyovers (wind/lightning risk)",
	"Airport Road (open area, wind exposure)",
}

// AvoidAreas lists the hotspots to stay away from under major or severe
// conditions. It returns nil for every other severity.
func AvoidAreas(s Severity) []string {
	if s != SeverityMajor && s != SeveritySevere {
		return nil
	}
	return append([]string(nil), avoidAreas...)
}
