package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/walkeeper/pkg/config"
)

// SegmentMetrics tracks the retained segment range.
//
// Metrics:
//   - walkeeper_retention_lowest_version
//   - walkeeper_retention_highest_version
//   - walkeeper_retention_recovery_floor
type SegmentMetrics struct {
	lowest  prometheus.Gauge
	highest prometheus.Gauge
	floor   prometheus.Gauge
}

// NewSegmentMetrics creates and registers segment metrics with the provided registry.
func NewSegmentMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SegmentMetrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	sm := &SegmentMetrics{
		lowest:  gauge("lowest_version", "Lowest retained segment version after the last pass"),
		highest: gauge("highest_version", "Highest segment version seen by the last pass"),
		floor:   gauge("recovery_floor", "Lowest version recovery required during the last pass"),
	}

	registry.MustRegister(sm.lowest, sm.highest, sm.floor)
	return sm
}
