package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "WALKEEPER_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded over the defaults, so omitted fields keep their default
// values. The result is validated. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention WALKEEPER_SECTION_FIELD (e.g., WALKEEPER_RETENTION_POLICY) and
// always take precedence over the file.
//
// The loading sequence is:
// 1. Start from default values
// 2. Decode the YAML file over them
// 3. Apply environment variable overrides
// 4. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDefaultsWithEnvOverrides returns the defaults with environment
// variable overrides applied, validated. It serves commands run without a
// configuration file.
func LoadDefaultsWithEnvOverrides() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration from memory over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Retention overrides
	setString("RETENTION_POLICY", &cfg.Retention.Policy)
	setString("RETENTION_SCHEDULE", &cfg.Retention.Schedule)
	setBool("RETENTION_WATCH", &cfg.Retention.Watch)
	setBool("RETENTION_ARCHIVE_ENABLED", &cfg.Retention.Archive.Enabled)
	setString("RETENTION_ARCHIVE_PATH", &cfg.Retention.Archive.Path)
	setString("RETENTION_ARCHIVE_CODEC", &cfg.Retention.Archive.Codec)

	// Segment overrides
	setString("SEGMENTS_DIRECTORY", &cfg.Segments.Directory)
	setString("SEGMENTS_FILE_PREFIX", &cfg.Segments.FilePrefix)
	setString("SEGMENTS_CATALOG_DRIVER", &cfg.Segments.Catalog.Driver)
	setString("SEGMENTS_CATALOG_PATH", &cfg.Segments.Catalog.Path)
	setInt("SEGMENTS_CATALOG_MAX_OPEN_CONNS", &cfg.Segments.Catalog.MaxOpenConns)
	setDuration("SEGMENTS_CATALOG_BUSY_TIMEOUT", &cfg.Segments.Catalog.BusyTimeout)

	// Checkpoint overrides
	setString("CHECKPOINT_PATH", &cfg.Checkpoint.Path)

	// Server overrides
	setBool("SERVER_ENABLED", &cfg.Server.Enabled)
	setString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Telemetry overrides
	setString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	setString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
}

func setString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func setBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
