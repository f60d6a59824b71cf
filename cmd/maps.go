package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/probe"
)

func mapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "Check the Google Maps APIs",
		Long:  `Exercises directions, geocoding, route variants avoiding highways and tolls, and places autocomplete for the configured commute.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if missingCredentials(cmd.OutOrStdout(), cfg, "Google Maps API key") {
				return nil
			}

			c := newClients(cfg, nil)
			_, err := runSuite(cmd, probe.MapsSuite(c.maps, cfg.Commute))
			return err
		},
	}
}
