// Package telemetry groups walkeeper's observability packages.
//
//   - logging: slog logger construction with pass and trace correlation
//   - metrics: Prometheus metrics for prune passes and policy changes
//   - tracing: OpenTelemetry spans around prune passes
//   - health: liveness, readiness and version endpoints
package telemetry
