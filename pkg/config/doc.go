// Package config provides configuration management for walkeeper.
//
// Configuration is loaded from a YAML file, decoded over default values,
// optionally overridden from the environment and validated as a whole:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("walkeeper.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention WALKEEPER_SECTION_FIELD:
//
//   - WALKEEPER_RETENTION_POLICY overrides retention.policy
//   - WALKEEPER_SEGMENTS_CATALOG_DRIVER overrides segments.catalog.driver
//   - WALKEEPER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Validation
//
// Validate collects every problem into a ValidationError of FieldErrors.
// The retention policy is parsed with the same parser the engine uses, so a
// configuration that validates always compiles.
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and reloads it after
// a debounce period. The daemon uses it to apply a changed retention policy
// without a restart.
package config
