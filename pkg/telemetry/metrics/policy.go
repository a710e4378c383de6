package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/walkeeper/pkg/config"
)

// PolicyMetrics tracks retention policy changes.
//
// Metrics:
//   - walkeeper_retention_policy_applied_total: applications by result (accepted, rejected)
//   - walkeeper_retention_policy_info: 1 for the active policy description
type PolicyMetrics struct {
	appliedTotal *prometheus.CounterVec
	active       *prometheus.GaugeVec
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		appliedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_applied_total",
				Help:      "Retention policy applications by result",
			},
			[]string{"result"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_info",
				Help:      "Active retention policy, labelled by its description",
			},
			[]string{"policy"},
		),
	}

	registry.MustRegister(pm.appliedTotal, pm.active)
	return pm
}
