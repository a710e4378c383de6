// Package metrics provides Prometheus metrics for walkeeper.
//
// # Metrics Categories
//
//   - Pass metrics: prune passes by outcome, pass duration, segments deleted,
//     archived and clamped by the recovery floor
//   - Policy metrics: policy applications by outcome and the info gauge of
//     the active policy
//   - Segment metrics: highest and lowest retained version and the recovery floor
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	engine, err := retention.NewEngine(retention.Config{Metrics: collector, ...})
//	mux.Handle("/metrics", collector.Handler())
//
// Every recording method is safe on a nil *Collector, which is how callers
// run without metrics.
//
// # Prometheus Endpoint
//
//	# HELP walkeeper_retention_segments_deleted_total Segments deleted by prune passes
//	# TYPE walkeeper_retention_segments_deleted_total counter
//	walkeeper_retention_segments_deleted_total 42
package metrics
