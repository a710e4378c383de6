package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/walkeeper/pkg/config"
)

// Pass outcomes recorded by RecordPass.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Collector owns every walkeeper metric and the registry they live in.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	pass     *PassMetrics
	policy   *PolicyMetrics
	segments *SegmentMetrics
}

// NewCollector creates a collector registering into registry. A nil registry
// gets a fresh one. Zero-valued naming fields take the package defaults.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.PassDurationBuckets) == 0 {
		cfg.PassDurationBuckets = config.DefaultPassDurationBuckets
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		pass:     NewPassMetrics(cfg, registry),
		policy:   NewPolicyMetrics(cfg, registry),
		segments: NewSegmentMetrics(cfg, registry),
	}
}

// Registry returns the registry the collector registers into.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordPass records a finished prune pass.
func (c *Collector) RecordPass(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.pass.passesTotal.WithLabelValues(outcome).Inc()
	c.pass.passDuration.Observe(duration.Seconds())
}

// RecordDeleted counts a deleted segment of the given size in bytes.
func (c *Collector) RecordDeleted(sizeBytes int64) {
	if !c.enabled() {
		return
	}
	c.pass.deletedTotal.Inc()
	if sizeBytes > 0 {
		c.pass.deletedBytes.Add(float64(sizeBytes))
	}
}

// RecordDeletionFailure counts a deletion or archive failure.
func (c *Collector) RecordDeletionFailure(stage string) {
	if !c.enabled() {
		return
	}
	c.pass.failuresTotal.WithLabelValues(stage).Inc()
}

// RecordClamped counts candidates withheld by the recovery floor.
func (c *Collector) RecordClamped(n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.pass.clampedTotal.Add(float64(n))
}

// RecordArchived counts a segment archived with codec.
func (c *Collector) RecordArchived(codec string) {
	if !c.enabled() {
		return
	}
	c.pass.archivedTotal.WithLabelValues(codec).Inc()
}

// RecordPolicyApplied records a policy application. On success the info
// gauge moves from previous to current.
func (c *Collector) RecordPolicyApplied(previous, current string, err error) {
	if !c.enabled() {
		return
	}
	if err != nil {
		c.policy.appliedTotal.WithLabelValues("rejected").Inc()
		return
	}
	c.policy.appliedTotal.WithLabelValues("accepted").Inc()
	if previous != "" {
		c.policy.active.DeleteLabelValues(previous)
	}
	c.policy.active.WithLabelValues(current).Set(1)
}

// SetVersions records the retained version range and the recovery floor.
func (c *Collector) SetVersions(lowest, highest, floor int64) {
	if !c.enabled() {
		return
	}
	c.segments.lowest.Set(float64(lowest))
	c.segments.highest.Set(float64(highest))
	c.segments.floor.Set(float64(floor))
}
