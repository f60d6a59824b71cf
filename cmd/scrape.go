package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/probe"
)

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Check the Bright Data collect API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if missingCredentials(cmd.OutOrStdout(), cfg, "Bright Data API token") {
				return nil
			}

			c := newClients(cfg, nil)
			_, err := runSuite(cmd, probe.ScrapeSuite(c.scraper))
			return err
		},
	}
}
