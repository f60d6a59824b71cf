package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/pkg/logger"
	"github.com/vzahanych/smart-commute/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	configPath string
	log        *logger.Logger
	tele       *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commute",
		Short: "Smart commute API checks and recommendation service",
		Long: `Validates the scraping, maps and weather API credentials used by the smart
commute workflow, simulates the workflow end to end, and serves the latest
commute recommendation over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(weatherCmd())
	cmd.AddCommand(mapsCmd())
	cmd.AddCommand(scrapeCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(serverCmd())

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if log != nil {
			log.Zap().Info("Received shutdown signal", zap.String("signal", sig.String()))
		}
		cancel()
	}()

	return run(ctx, rootCmd())
}

// run executes root and releases logger and telemetry whether or not the
// command failed. Cobra skips post-run hooks after a RunE error.
func run(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	shutdownServices()
	return err
}

func initializeServices(ctx context.Context) error {
	// 1. Load config from defaults, file and SMC_* env
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Set config
	// Having config in atomic allows changing it during runtime
	config.SetConfig(cfg)

	// 3. Initialize logger
	log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		log.Zap().Warn("Failed to initialize telemetry", zap.Error(err))
	}

	return nil
}

func shutdownServices() {
	if log == nil {
		return
	}
	if err := tele.Shutdown(context.Background()); err != nil {
		log.Zap().Warn("Telemetry shutdown failed", zap.Error(err))
	}
	_ = log.Sync()
	log, tele = nil, nil
}
