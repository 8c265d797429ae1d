// Package main implements the entry point for the EDQS service, an
// in-memory entity data query service fed by a NATS event stream.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/edqs/config"
	"github.com/c360/edqs/health"
	"github.com/c360/edqs/ingest"
	"github.com/c360/edqs/metric"
	"github.com/c360/edqs/repo"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "edqs"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsRegistry := metric.NewMetricsRegistry()
	stats := metric.NewStatsService(metricsRegistry)

	registry := repo.NewRegistry(logger,
		repo.WithStats(stats),
		repo.WithIdleTTL(cfg.Repository.IdleTTL.AsDuration()),
	)

	monitor := health.NewMonitor()

	if path := cfg.Repository.SnapshotPath; path != "" {
		loader := ingest.NewLoader(registry, cfg.Repository.LoaderWorkers,
			metricsRegistry, metricsRegistry.Metrics, logger)
		if err := loader.Start(ctx); err != nil {
			return fmt.Errorf("start snapshot loader: %w", err)
		}
		if err := loader.Restore(ctx, path); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		if err := loader.Stop(time.Minute); err != nil {
			return fmt.Errorf("drain snapshot loader: %w", err)
		}
		slog.Info("Snapshot restored", "path", path)
	}

	consumer := ingest.NewConsumer(cfg.NATS, registry, metricsRegistry.Metrics, logger)
	consumer.SetHealthMonitor(monitor)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumer.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		metricsServer := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		metricsServer.SetHealthMonitor(monitor)
		g.Go(func() error {
			return metricsServer.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			return metricsServer.Stop()
		})
		slog.Info("Metrics server enabled", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	g.Go(func() error {
		registry.RunEviction(gctx, cfg.Repository.EvictionInterval.AsDuration())
		return nil
	})

	slog.Info("EDQS started", "nats_stream", cfg.NATS.Stream, "nats_subject", cfg.NATS.Subject)

	<-gctx.Done()
	slog.Info("Received shutdown signal")

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("service error: %w", err)
	}

	slog.Info("EDQS shutdown complete")
	return nil
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting EDQS (entity data query service)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// loadConfig loads and validates configuration from the specified file path
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
