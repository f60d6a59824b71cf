package probe

import (
	"fmt"
	"io"
	"strings"
)

// setupSteps are keyed by the names config.MissingCredentials returns.
var setupSteps = map[string][]string{
	"Bright Data API token": {
		"Go to https://brightdata.com and sign up or log in",
		`Create a new "Scraping Browser" zone`,
		"Copy your API token from the dashboard into scraper.api_token (SMC_SCRAPER_API_TOKEN)",
	},
	"Google Maps API key": {
		"Go to console.cloud.google.com and create or select a project",
		"Enable the Directions, Geocoding and Places APIs",
		"Create credentials, then API key, and restrict it",
		"Set maps.api_key (SMC_MAPS_API_KEY)",
	},
	"OpenWeatherMap API key": {
		"Go to https://openweathermap.org/api and sign up for a free account",
		"Verify your email and copy the default key from the API Keys tab",
		"Wait 10-60 minutes for key activation",
		"Set weather.api_key (SMC_WEATHER_API_KEY)",
	},
}

// PrintSetup explains which credentials are missing and how to obtain them.
func PrintSetup(w io.Writer, missing []string) {
	fmt.Fprintln(w, "Configuration incomplete!")
	fmt.Fprintf(w, "  Missing: %s\n", strings.Join(missing, ", "))
	fmt.Fprintln(w, "\nSetup instructions:")

	n := 1
	for _, name := range missing {
		fmt.Fprintf(w, "\n  %s\n", name)
		for _, step := range setupSteps[name] {
			fmt.Fprintf(w, "    %d. %s\n", n, step)
			n++
		}
	}
	fmt.Fprintf(w, "    %d. Run this command again\n", n)
}

// Usage describes one service's share of a month of workflow runs.
type Usage struct {
	Service        string
	Calls          string
	CallsPerRun    int
	FreeTierPerMon int
}

func (u Usage) Monthly(runs int) int { return u.CallsPerRun * runs }

func (u Usage) Percent(runs int) float64 {
	return float64(u.Monthly(runs)) / float64(u.FreeTierPerMon) * 100
}

const (
	RunsPerDay  = 4
	DaysInMonth = 30
)

var WorkflowUsage = []Usage{
	{Service: "Bright Data", Calls: "news + social + official scrapes", CallsPerRun: 3, FreeTierPerMon: 1000},
	{Service: "Google Maps", Calls: "directions + geocoding", CallsPerRun: 2, FreeTierPerMon: 40000},
	{Service: "OpenWeatherMap", Calls: "current + forecast", CallsPerRun: 2, FreeTierPerMon: 30000},
}

// PrintCostAnalysis prints expected monthly usage against each free tier.
func PrintCostAnalysis(w io.Writer, usage []Usage) {
	runs := RunsPerDay * DaysInMonth
	within := true

	fmt.Fprintln(w, "\nCost analysis")
	fmt.Fprintf(w, "  %d runs/day x %d days = %d workflow runs/month\n\n", RunsPerDay, DaysInMonth, runs)

	for _, u := range usage {
		fmt.Fprintf(w, "  %-16s %d calls/run (%s)\n", u.Service, u.CallsPerRun, u.Calls)
		fmt.Fprintf(w, "  %-16s %d/month of %d free (%.1f%%)\n", "", u.Monthly(runs), u.FreeTierPerMon, u.Percent(runs))
		if u.Monthly(runs) > u.FreeTierPerMon {
			within = false
		}
	}

	if within {
		fmt.Fprintln(w, "\n  Total monthly cost: $0.00 (all services within free tier)")
		return
	}
	fmt.Fprintln(w, "\n  Usage exceeds a free tier; check current pricing")
}
