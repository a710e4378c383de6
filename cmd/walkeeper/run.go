package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/config"
	"mercator-hq/walkeeper/pkg/retention"
	"mercator-hq/walkeeper/pkg/server"
	"mercator-hq/walkeeper/pkg/telemetry/health"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	noServer      bool
	pruneOnStart  bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the retention daemon",
	Long: `Run prune passes on the configured schedule until interrupted.

The daemon also serves the admin API (status, on-demand prune, live policy
change, health and metrics), reloads the configuration on SIGHUP, and, with
retention.watch enabled, whenever the configuration file changes.

Examples:
  # Start with default config
  walkeeper run

  # Start with custom config
  walkeeper run --config /etc/walkeeper/walkeeper.yaml

  # Override listen address
  walkeeper run --listen 0.0.0.0:9470

  # Validate config and policy without starting
  walkeeper run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override admin listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.noServer, "no-server", false, "do not start the admin server")
	runCmd.Flags().BoolVar(&runFlags.pruneOnStart, "prune-on-start", true, "run a pass as soon as the daemon starts")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and policy without starting")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.noServer {
		cfg.Server.Enabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.SetConfig(cfg)

	a, err := newApp(cfg, "")
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	if runFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "configuration valid, policy %q\n", a.engine.DescribeCurrentStrategy())
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	scheduler := retention.NewScheduler(a.engine, cfg.Retention.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer scheduler.Stop()
	if runFlags.pruneOnStart {
		scheduler.Trigger()
	}

	reloader := &policyReloader{engine: a.engine, applied: cfg.Retention.Policy, logger: a.logger}
	go reloader.onSignal(ctx, cfgFile)
	if cfg.Retention.Watch && fileExists(cfgFile) {
		watcher, err := config.NewWatcher(cfgFile, cfg.Retention.WatchDebounce, a.logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer func() { _ = watcher.Stop() }()
		go func() {
			if err := watcher.Watch(ctx, reloader.apply); err != nil {
				a.logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	if cfg.Server.Enabled {
		opts := server.Options{
			Engine:           a.engine,
			Directory:        a.catalog,
			Floor:            a.floor,
			Scheduler:        scheduler,
			ConfiguredPolicy: configuredPolicy,
			Health:           newHealthChecker(a),
			HealthPaths:      healthPaths(cfg),
			Version: health.VersionInfo{
				Version:   Version,
				Commit:    GitCommit,
				BuildTime: BuildDate,
			},
		}
		if a.metrics != nil {
			opts.Metrics = a.metrics.Handler()
			opts.MetricsPath = cfg.Telemetry.Metrics.Path
		}
		srv := server.New(&cfg.Server, opts)
		go func() { errChan <- srv.Start(ctx) }()
	}

	a.logger.Info("walkeeper started",
		"version", Version,
		"policy", a.engine.DescribeCurrentStrategy(),
		"schedule", cfg.Retention.Schedule,
		"admin", cfg.Server.Enabled,
		"tracing", a.tracer.Enabled(),
	)

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		if cfg.Server.Enabled {
			if err := <-errChan; err != nil {
				return cli.NewCommandError("run", err)
			}
		}
		return nil
	case err := <-errChan:
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		return nil
	}
}

// configuredPolicy returns the policy of the current global configuration,
// which SIGHUP and the file watcher replace on reload.
func configuredPolicy() string {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg.Retention.Policy
	}
	return ""
}

func newHealthChecker(a *app) *health.Checker {
	checker := health.New(a.cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("catalog", a.catalog.Ping)
	checker.RegisterCheck("checkpoint", func(context.Context) error {
		_, err := a.floor.LowestRequiredVersion()
		return err
	})
	return checker
}

func healthPaths(cfg *config.Config) health.Paths {
	return health.Paths{
		Liveness:  cfg.Telemetry.Health.LivenessPath,
		Readiness: cfg.Telemetry.Health.ReadinessPath,
		Version:   cfg.Telemetry.Health.VersionPath,
	}
}

// policyReloader applies the policy of a reloaded configuration when it
// differs from the last one applied.
type policyReloader struct {
	mu      sync.Mutex
	engine  *retention.Engine
	applied string
	logger  *slog.Logger
}

func (r *policyReloader) apply(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Retention.Policy == r.applied {
		return
	}
	if err := r.engine.Apply(cfg.Retention.Policy); err != nil {
		r.logger.Error("reloaded policy rejected, keeping current policy",
			"policy", cfg.Retention.Policy,
			"current", r.engine.DescribeCurrentStrategy(),
			"error", err,
		)
		return
	}
	r.applied = cfg.Retention.Policy
}

// onSignal reloads the configuration on SIGHUP until ctx is done.
func (r *policyReloader) onSignal(ctx context.Context, path string) {
	hup := cli.NotifyReload()
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.ReloadConfig(path)
			if err != nil {
				r.logger.Error("configuration reload failed", "error", err)
				continue
			}
			r.logger.Info("configuration reloaded", "path", path)
			r.apply(cfg)
		}
	}
}
