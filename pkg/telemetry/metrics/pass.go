package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/walkeeper/pkg/config"
)

// PassMetrics tracks prune passes.
//
// Metrics:
//   - walkeeper_retention_passes_total: passes by outcome
//   - walkeeper_retention_pass_duration_seconds: pass duration
//   - walkeeper_retention_segments_deleted_total: segments deleted
//   - walkeeper_retention_deleted_bytes_total: bytes deleted
//   - walkeeper_retention_failures_total: failures by stage (archive, delete)
//   - walkeeper_retention_segments_clamped_total: candidates withheld by the floor
//   - walkeeper_retention_segments_archived_total: segments archived by codec
type PassMetrics struct {
	passesTotal   *prometheus.CounterVec
	passDuration  prometheus.Histogram
	deletedTotal  prometheus.Counter
	deletedBytes  prometheus.Counter
	failuresTotal *prometheus.CounterVec
	clampedTotal  prometheus.Counter
	archivedTotal *prometheus.CounterVec
}

// NewPassMetrics creates and registers pass metrics with the provided registry.
func NewPassMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PassMetrics {
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}
	}

	pm := &PassMetrics{
		passesTotal: prometheus.NewCounterVec(
			opts("passes_total", "Prune passes by outcome"),
			[]string{"outcome"},
		),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pass_duration_seconds",
			Help:      "Duration of prune passes in seconds",
			Buckets:   cfg.PassDurationBuckets,
		}),
		deletedTotal: prometheus.NewCounter(
			opts("segments_deleted_total", "Segments deleted by prune passes"),
		),
		deletedBytes: prometheus.NewCounter(
			opts("deleted_bytes_total", "Bytes of segments deleted by prune passes"),
		),
		failuresTotal: prometheus.NewCounterVec(
			opts("failures_total", "Failures that aborted a prune pass, by stage"),
			[]string{"stage"},
		),
		clampedTotal: prometheus.NewCounter(
			opts("segments_clamped_total", "Candidates withheld because recovery still needs them"),
		),
		archivedTotal: prometheus.NewCounterVec(
			opts("segments_archived_total", "Segments archived before deletion, by codec"),
			[]string{"codec"},
		),
	}

	registry.MustRegister(
		pm.passesTotal,
		pm.passDuration,
		pm.deletedTotal,
		pm.deletedBytes,
		pm.failuresTotal,
		pm.clampedTotal,
		pm.archivedTotal,
	)

	return pm
}
