// Package tracing provides OpenTelemetry tracing for walkeeper.
//
// Each prune pass runs inside a "retention.prune" span carrying the pass ID,
// the boundary, the floor and the number of segments deleted. Admin API
// requests continue traces propagated with W3C Trace Context headers.
//
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set;
// otherwise the tracer is a no-op.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//	engine, err := retention.NewEngine(retention.Config{Tracer: tracer.Tracer(), ...})
package tracing
