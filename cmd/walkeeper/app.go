package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/catalog"
	"mercator-hq/walkeeper/pkg/checkpoint"
	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/config"
	"mercator-hq/walkeeper/pkg/retention"
	"mercator-hq/walkeeper/pkg/telemetry/logging"
	"mercator-hq/walkeeper/pkg/telemetry/metrics"
	"mercator-hq/walkeeper/pkg/telemetry/tracing"
)

// loadConfig reads --config. Without an explicit --config, a missing
// default file falls back to the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if !cmd.Flags().Changed("config") && errors.Is(err, fs.ErrNotExist) {
		return config.LoadDefaultsWithEnvOverrides()
	}
	if errors.As(err, new(config.ValidationError)) {
		return nil, err
	}
	return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load %s: %v", cfgFile, err))
}

// setupLogging installs the configured logger. --verbose forces debug.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		lc.Level = "debug"
	}
	return logging.Setup(lc)
}

// app holds the components shared by commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *catalog.Catalog
	floor    *checkpoint.FileFloor
	archiver *retention.FileArchiver
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	engine   *retention.Engine
}

// newApp opens the catalog and builds the engine. policyText overrides the
// configured policy when non-empty.
func newApp(cfg *config.Config, policyText string) (*app, error) {
	logger, err := setupLogging(cfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	a := &app{cfg: cfg, logger: logger}

	a.catalog, err = catalog.Open(cfg.Segments.Catalog)
	if err != nil {
		return nil, err
	}
	a.floor = checkpoint.NewFileFloor(cfg.Checkpoint.Path)

	if cfg.Retention.Archive.Enabled {
		a.archiver, err = retention.NewFileArchiver(cfg.Retention.Archive.Path, cfg.Retention.Archive.Codec)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.Telemetry.Metrics.Enabled {
		a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if policyText == "" {
		policyText = cfg.Retention.Policy
	}
	engineCfg := retention.Config{
		Policy:    policyText,
		Directory: a.catalog,
		Floor:     a.floor,
		Metrics:   a.metrics,
		Tracer:    a.tracer.Tracer(),
		Logger:    logger,
	}
	if a.archiver != nil {
		engineCfg.Archiver = a.archiver
	}
	a.engine, err = retention.NewEngine(engineCfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases the catalog and flushes traces.
func (a *app) Close() {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("tracer shutdown failed", "error", err)
		}
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			a.logger.Warn("catalog close failed", "error", err)
		}
	}
}

// openCatalog opens only the catalog, for commands that do not prune.
func openCatalog(cmd *cobra.Command) (*config.Config, *catalog.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := setupLogging(cfg); err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	c, err := catalog.Open(cfg.Segments.Catalog)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
