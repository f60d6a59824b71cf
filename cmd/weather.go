package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/probe"
)

func weatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Check the OpenWeatherMap API",
		Long:  `Fetches current conditions and the forecast, classifies the commute impact and fires a burst of concurrent requests to probe the quota.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if missingCredentials(cmd.OutOrStdout(), cfg, "OpenWeatherMap API key") {
				return nil
			}

			c := newClients(cfg, nil)
			_, err := runSuite(cmd, probe.WeatherSuite(c.weather, cfg.Weather.ProbeRequests, commuteLocation(cfg)))
			return err
		},
	}
}
