// Package logging builds the process logger on top of log/slog.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	slog.SetDefault(logger)
//
// Components derive their own logger with a component attribute:
//
//	logger := slog.Default().With("component", "retention.engine")
//
// # Context Fields
//
// Loggers built here read correlation fields from the context passed to the
// *Context logging methods. A prune pass stores its ID with WithPassID; an
// active OpenTelemetry span contributes trace_id and span_id:
//
//	ctx = logging.WithPassID(ctx, passID)
//	logger.InfoContext(ctx, "segment deleted", "version", v)
package logging
