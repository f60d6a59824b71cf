package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/aggregator"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/internal/notify"
	"github.com/vzahanych/smart-commute/internal/server"
	"github.com/vzahanych/smart-commute/internal/server/handlers"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Serve commute recommendations over HTTP",
		Long: `Starts the HTTP server exposing /recommendation, /impact, health and metrics
endpoints. With server.refresh_interval set, a background refresher keeps the
home to office recommendation warm and, with notify.enabled, publishes each one
to Kafka.`,
		RunE: runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	logger := log.Zap()

	logger.Info("Starting smart commute server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Bool("notify_enabled", cfg.Notify.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("Credentials missing, readiness will fail", zap.Strings("missing", missing))
	}

	metrics := handlers.NewAppMetrics()
	c := newClients(cfg, metrics)

	agg := aggregator.NewAggregator(c.weather, c.maps, c.scraper,
		time.Duration(cfg.Server.CacheTTL)*time.Second, logger, tele)
	agg.SetMetricsRecorder(metrics)

	var publisher aggregator.Publisher
	if cfg.Notify.Enabled {
		p := notify.NewPublisher(cfg.Notify, logger)
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("Failed to close publisher", zap.Error(err))
			}
		}()
		publisher = p
	}

	ctx := cmd.Context()

	if cfg.Server.RefreshInterval > 0 {
		refresher := aggregator.NewRefresher(agg, cfg.Commute.HomeAddress, cfg.Commute.OfficeAddress,
			time.Duration(cfg.Server.RefreshInterval)*time.Second, publisher)
		go refresher.Start(ctx)
	}

	srv := server.NewServer(cfg, agg, c.weather, metrics, logger, tele)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		logger.Info("Server shutdown complete")
		return nil
	}
}
