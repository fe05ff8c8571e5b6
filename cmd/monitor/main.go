// Package main provides the market monitor daemon.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edge-engine/internal/config"
	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/health"
	"github.com/yourusername/edge-engine/internal/killswitch"
	"github.com/yourusername/edge-engine/internal/logger"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/monitor"
	"github.com/yourusername/edge-engine/internal/repository"
	"github.com/yourusername/edge-engine/internal/simcache"
	"github.com/yourusername/edge-engine/internal/simcontext"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile   string
	contextsFile string
	healthPort   string
)

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&contextsFile, "contexts", "", "Path to JSON file of simulation contexts to watch (required)")
	rootCmd.Flags().StringVar(&healthPort, "health-port", "", "Health server port (default from HEALTH_PORT or 8080)")
	rootCmd.MarkFlagRequired("contexts")
}

var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch live market lines for priced simulation contexts",
	Long: `Subscribes to the odds provider stream for every watched market and demotes
cached simulation results when the line moves materially away from the
context they were priced against. A cron sweep invalidates results whose
odds snapshots have aged past the freshness window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		if err := config.LoadSecretsFromAWS(cfg, os.Getenv("AWS_REGION"), os.Getenv("AWS_SECRET_NAME")); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	contexts, err := loadContexts(contextsFile)
	if err != nil {
		return err
	}

	cache := simcache.New(cfg.CacheTTL())
	mon := monitor.New(&cfg.Monitor, cache, repos.Results, cfg.FreshnessWindow(), appLogger)
	for _, simCtx := range contexts {
		mon.Register(simCtx)
	}

	sw := killswitch.New(repos.KillSwitch, cfg.KillSwitchTTL(), appLogger)
	healthServer := health.NewServer(health.Config{
		ServiceName: "edge-engine-monitor",
		Version:     Version,
		Commit:      GitCommit,
		Port:        healthPort,
		MetricsPath: cfg.Metrics.Path,
		Logger:      appLogger,
		DB:          db,
		KillSwitch:  sw,
	})
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}
	healthServer.SetReady(true)

	appLogger.WithFields(logrus.Fields{
		"markets": mon.Watched(),
	}).Info("Market monitor running")

	<-ctx.Done()
	appLogger.Info("Shutting down market monitor")
	mon.Stop()
	return nil
}

func loadContexts(path string) ([]simcontext.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contexts file: %w", err)
	}

	var contexts []simcontext.Context
	if err := json.Unmarshal(data, &contexts); err != nil {
		return nil, fmt.Errorf("failed to parse contexts file: %w", err)
	}
	if len(contexts) == 0 {
		return nil, fmt.Errorf("contexts file contains no entries")
	}
	return contexts, nil
}
