package cmd

import (
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/probe"
	"github.com/vzahanych/smart-commute/internal/service"
	"go.uber.org/zap"
)

type clients struct {
	weather *service.OpenWeatherService
	maps    *service.GoogleMapsService
	scraper *service.BrightDataService
}

// newClients builds the three API clients. recorder may be nil.
func newClients(cfg *config.Config, recorder service.CallRecorder) *clients {
	logger := log.Zap()
	c := &clients{
		weather: service.NewOpenWeatherService(cfg.Weather, logger, tele),
		maps:    service.NewGoogleMapsService(cfg.Maps, logger, tele),
		scraper: service.NewBrightDataService(cfg.Scraper, logger, tele),
	}
	if recorder != nil {
		c.weather.SetMetricsRecorder(recorder)
		c.maps.SetMetricsRecorder(recorder)
		c.scraper.SetMetricsRecorder(recorder)
	}
	return c
}

// missingCredentials prints setup steps for any of the named credentials
// still unset and reports whether there were any.
func missingCredentials(out io.Writer, cfg *config.Config, names ...string) bool {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var missing []string
	for _, m := range cfg.MissingCredentials() {
		if len(names) == 0 || wanted[m] {
			missing = append(missing, m)
		}
	}
	if len(missing) == 0 {
		return false
	}

	probe.PrintSetup(out, missing)
	return true
}

func commuteLocation(cfg *config.Config) *time.Location {
	loc, err := time.LoadLocation(cfg.Commute.TimeZone)
	if err != nil {
		log.Zap().Warn("Unknown time zone, using UTC",
			zap.String("time_zone", cfg.Commute.TimeZone), zap.Error(err))
		return time.UTC
	}
	return loc
}

// runSuite runs one suite and turns a missed threshold into an error.
func runSuite(cmd *cobra.Command, suite probe.Suite) (probe.Summary, error) {
	summary := probe.NewRunner(cmd.OutOrStdout(), log.Zap()).Run(cmd.Context(), suite)
	return summary, summary.Err()
}
