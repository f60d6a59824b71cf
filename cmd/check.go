package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/aggregator"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/notify"
	"github.com/vzahanych/smart-commute/internal/probe"
	"go.uber.org/zap"
)

func checkCmd() *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every API check and simulate the commute workflow",
		Long: `Runs the six individual API checks, then one full workflow run. The check
passes when at least four individual checks and the workflow succeed, and then
prints the monthly cost analysis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if missingCredentials(cmd.OutOrStdout(), cfg) {
				return nil
			}
			return runCheck(cmd, cfg, publish)
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "publish the workflow recommendation to Kafka")

	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, publish bool) error {
	logger := log.Zap()
	c := newClients(cfg, nil)

	agg := aggregator.NewAggregator(c.weather, c.maps, c.scraper,
		time.Duration(cfg.Server.CacheTTL)*time.Second, logger, tele)

	var publishFn func(context.Context, *aggregator.Recommendation) error
	if publish {
		publisher := notify.NewPublisher(cfg.Notify, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close publisher", zap.Error(err))
			}
		}()
		publishFn = publisher.Publish
	}

	workflow := probe.WorkflowCheck(agg, cfg.Commute.HomeAddress, cfg.Commute.OfficeAddress, publishFn)
	suite := probe.CombinedSuite(c.weather, c.maps, c.scraper, cfg.Commute, commuteLocation(cfg), workflow)

	summary, err := runSuite(cmd, suite)
	if summary.OK() {
		probe.PrintCostAnalysis(cmd.OutOrStdout(), probe.WorkflowUsage)
	}
	return err
}
