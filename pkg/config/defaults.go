package config

import "time"

// Default values for configuration fields.
const (
	// Retention defaults
	DefaultRetentionPolicy        = "7 days"
	DefaultRetentionSchedule      = "*/15 * * * *"
	DefaultRetentionWatchDebounce = 250 * time.Millisecond
	DefaultArchivePath            = "data/archive"
	DefaultArchiveCodec           = "zstd"

	// Segment defaults
	DefaultSegmentsDirectory   = "data/wal"
	DefaultSegmentsFilePrefix  = "neostore.transaction.db"
	DefaultCatalogDriver       = "sqlite"
	DefaultCatalogPath         = "data/segments.db"
	DefaultCatalogMaxOpenConns = 4
	DefaultCatalogWALMode      = true
	DefaultCatalogBusyTimeout  = 5 * time.Second

	// Checkpoint defaults
	DefaultCheckpointPath = "data/checkpoint.yaml"

	// Server defaults
	DefaultServerEnabled   = true
	DefaultListenAddress   = "127.0.0.1:9470"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "walkeeper"
	DefaultMetricsSubsystem   = "retention"
	DefaultTracingSampler     = "always"
	DefaultTracingServiceName = "walkeeper"
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultPassDurationBuckets are histogram buckets for prune pass duration in seconds.
var DefaultPassDurationBuckets = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// Default returns a configuration holding only default values. Boolean
// switches that default to on are set here, since ApplyDefaults cannot tell
// an explicit false from an unset field.
func Default() *Config {
	cfg := &Config{}
	cfg.Segments.Catalog.WALMode = DefaultCatalogWALMode
	cfg.Server.Enabled = DefaultServerEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	r := &cfg.Retention
	if r.Policy == "" {
		r.Policy = DefaultRetentionPolicy
	}
	if r.WatchDebounce == 0 {
		r.WatchDebounce = DefaultRetentionWatchDebounce
	}
	if r.Archive.Path == "" {
		r.Archive.Path = DefaultArchivePath
	}
	if r.Archive.Codec == "" {
		r.Archive.Codec = DefaultArchiveCodec
	}

	s := &cfg.Segments
	if s.Directory == "" {
		s.Directory = DefaultSegmentsDirectory
	}
	if s.FilePrefix == "" {
		s.FilePrefix = DefaultSegmentsFilePrefix
	}
	if s.Catalog.Driver == "" {
		s.Catalog.Driver = DefaultCatalogDriver
	}
	if s.Catalog.Path == "" {
		s.Catalog.Path = DefaultCatalogPath
	}
	if s.Catalog.MaxOpenConns == 0 {
		s.Catalog.MaxOpenConns = DefaultCatalogMaxOpenConns
	}
	if s.Catalog.BusyTimeout == 0 {
		s.Catalog.BusyTimeout = DefaultCatalogBusyTimeout
	}

	if cfg.Checkpoint.Path == "" {
		cfg.Checkpoint.Path = DefaultCheckpointPath
	}

	srv := &cfg.Server
	if srv.ListenAddress == "" {
		srv.ListenAddress = DefaultListenAddress
	}
	if srv.ReadTimeout == 0 {
		srv.ReadTimeout = DefaultReadTimeout
	}
	if srv.WriteTimeout == 0 {
		srv.WriteTimeout = DefaultWriteTimeout
	}
	if srv.ShutdownTimeout == 0 {
		srv.ShutdownTimeout = DefaultShutdownTimeout
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultPrometheusPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.PassDurationBuckets) == 0 {
		t.Metrics.PassDurationBuckets = append([]float64(nil), DefaultPassDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.OTLP.Timeout == 0 {
		t.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
