package config

import "time"

// Config is the root configuration structure for walkeeper.
type Config struct {
	// Retention controls which log segments may be deleted and when passes run.
	Retention RetentionConfig `yaml:"retention"`

	// Segments describes where segment files live and how their metadata is indexed.
	Segments SegmentsConfig `yaml:"segments"`

	// Checkpoint locates the marker recording the last completed checkpoint.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// Server contains the admin HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics, tracing and health configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RetentionConfig contains the retention policy and its drivers.
type RetentionConfig struct {
	// Policy is the retention policy text, e.g. "7 days" or "2 days+100M size".
	// Default: "7 days"
	Policy string `yaml:"policy"`

	// Schedule is a cron expression for periodic prune passes.
	// Empty disables periodic passes.
	// Default: "*/15 * * * *"
	Schedule string `yaml:"schedule"`

	// Watch reloads the configuration file on change and applies a new policy.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a changed file is reloaded.
	// Default: 250ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Archive controls compress-before-delete.
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig controls archiving of segments before they are deleted.
type ArchiveConfig struct {
	// Enabled turns archiving on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the directory archived segments are written to.
	// Default: "data/archive"
	Path string `yaml:"path"`

	// Codec is the compression codec.
	// Options: "gzip", "zstd", "snappy", "lz4", "none"
	// Default: "zstd"
	Codec string `yaml:"codec"`
}

// SegmentsConfig describes the segment store.
type SegmentsConfig struct {
	// Directory holds the segment files.
	// Default: "data/wal"
	Directory string `yaml:"directory"`

	// FilePrefix is the segment file name before ".<version>".
	// Default: "neostore.transaction.db"
	FilePrefix string `yaml:"file_prefix"`

	// Catalog is the SQLite index of segment metadata.
	Catalog CatalogConfig `yaml:"catalog"`
}

// CatalogConfig contains SQLite segment catalog settings.
type CatalogConfig struct {
	// Driver selects the SQLite driver.
	// Options: "sqlite3" (cgo, mattn/go-sqlite3), "sqlite" (pure Go, modernc.org/sqlite)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file.
	// Default: "data/segments.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables SQLite write-ahead journaling.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CheckpointConfig locates the checkpoint marker.
type CheckpointConfig struct {
	// Path is the checkpoint marker file.
	// Default: "data/checkpoint.yaml"
	Path string `yaml:"path"`
}

// ServerConfig contains the admin HTTP server configuration.
type ServerConfig struct {
	// Enabled starts the admin server with "walkeeper run".
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the admin listen address.
	// Default: "127.0.0.1:9470"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Prune requests run inside it.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "walkeeper"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "retention"
	Subsystem string `yaml:"subsystem"`

	// PassDurationBuckets defines histogram buckets for prune pass duration (seconds).
	// Default: [0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30]
	PassDurationBuckets []float64 `yaml:"pass_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "walkeeper"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
