package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/walkeeper/pkg/retention/policy"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "retention.policy").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateSegments(&cfg.Segments)...)
	if cfg.Retention.Archive.Enabled && samePath(cfg.Retention.Archive.Path, cfg.Segments.Directory) {
		errs = append(errs, FieldError{
			Field:   "retention.archive.path",
			Message: "archive path must differ from segments.directory",
		})
	}

	if cfg.Checkpoint.Path == "" {
		errs = append(errs, FieldError{
			Field:   "checkpoint.path",
			Message: "checkpoint marker path is required",
		})
	}

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

var validCodecs = map[string]bool{"gzip": true, "zstd": true, "snappy": true, "lz4": true, "none": true}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if _, err := policy.Parse(cfg.Policy); err != nil {
		errs = append(errs, FieldError{
			Field:   "retention.policy",
			Message: err.Error(),
		})
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}

	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.watch_debounce",
			Message: "watch debounce must not be negative",
		})
	}

	if cfg.Archive.Enabled {
		if cfg.Archive.Path == "" {
			errs = append(errs, FieldError{
				Field:   "retention.archive.path",
				Message: "archive path is required when archiving is enabled",
			})
		}
		if !validCodecs[cfg.Archive.Codec] {
			errs = append(errs, FieldError{
				Field:   "retention.archive.codec",
				Message: fmt.Sprintf("invalid codec %q: must be 'gzip', 'zstd', 'snappy', 'lz4' or 'none'", cfg.Archive.Codec),
			})
		}
	}

	return errs
}

// samePath reports whether a and b name the same directory.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if absA, err := filepath.Abs(a); err == nil {
		a = absA
	}
	if absB, err := filepath.Abs(b); err == nil {
		b = absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func validateSegments(cfg *SegmentsConfig) []FieldError {
	var errs []FieldError

	if cfg.Directory == "" {
		errs = append(errs, FieldError{
			Field:   "segments.directory",
			Message: "segment directory is required",
		})
	}
	if cfg.FilePrefix == "" || strings.ContainsAny(cfg.FilePrefix, `/\`) {
		errs = append(errs, FieldError{
			Field:   "segments.file_prefix",
			Message: "file prefix must be a plain file name",
		})
	}

	switch cfg.Catalog.Driver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, FieldError{
			Field:   "segments.catalog.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.Catalog.Driver),
		})
	}

	if cfg.Catalog.Path == "" {
		errs = append(errs, FieldError{
			Field:   "segments.catalog.path",
			Message: "catalog path is required",
		})
	}
	if cfg.Catalog.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "segments.catalog.max_open_conns",
			Message: "max open connections must not be negative",
		})
	}
	if cfg.Catalog.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "segments.catalog.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server",
			Message: "timeouts must not be negative",
		})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never' or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must not be negative",
		})
	}

	return errs
}
