package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:      "unparseable policy",
			mutate:    func(c *Config) { c.Retention.Policy = "7 fortnights" },
			wantField: "retention.policy",
		},
		{
			name:      "empty policy",
			mutate:    func(c *Config) { c.Retention.Policy = " " },
			wantField: "retention.policy",
		},
		{
			name:      "bad cron",
			mutate:    func(c *Config) { c.Retention.Schedule = "every tuesday" },
			wantField: "retention.schedule",
		},
		{
			name: "bad codec with archive enabled",
			mutate: func(c *Config) {
				c.Retention.Archive.Enabled = true
				c.Retention.Archive.Codec = "brotli"
			},
			wantField: "retention.archive.codec",
		},
		{
			name:   "bad codec ignored when archive disabled",
			mutate: func(c *Config) { c.Retention.Archive.Codec = "brotli" },
		},
		{
			name: "archive into segment directory",
			mutate: func(c *Config) {
				c.Retention.Archive.Enabled = true
				c.Retention.Archive.Codec = "none"
				c.Retention.Archive.Path = c.Segments.Directory + "/"
			},
			wantField: "retention.archive.path",
		},
		{
			name: "archive beside segment directory",
			mutate: func(c *Config) {
				c.Retention.Archive.Enabled = true
				c.Retention.Archive.Path = c.Segments.Directory + "-archive"
			},
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.Segments.Catalog.Driver = "postgres" },
			wantField: "segments.catalog.driver",
		},
		{
			name:      "missing checkpoint path",
			mutate:    func(c *Config) { c.Checkpoint.Path = "" },
			wantField: "checkpoint.path",
		},
		{
			name:      "bad listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name: "listen address ignored when server disabled",
			mutate: func(c *Config) {
				c.Server.Enabled = false
				c.Server.ListenAddress = "localhost"
			},
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "sample ratio out of range",
			mutate:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for %s, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	got := multi.Error()
	if !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("unexpected multi error message %q", got)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Retention.Policy = "x"
	cfg.Telemetry.Logging.Format = "xml"
	cfg.Segments.Directory = ""

	var verr ValidationError
	if !errors.As(Validate(cfg), &verr) {
		t.Fatal("expected ValidationError")
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}
