package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/walkeeper/pkg/config"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:             true,
		Namespace:           "test",
		Subsystem:           "retention",
		PassDurationBuckets: []float64{0.01, 0.1, 1},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_Defaults(t *testing.T) {
	collector := NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	collector.RecordDeleted(10)

	count, err := testutil.GatherAndCount(collector.Registry(), "walkeeper_retention_segments_deleted_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected default-named metric, got %d series", count)
	}
}

func TestCollector_RecordPass(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordPass(OutcomeCompleted, 5*time.Millisecond)
	collector.RecordPass(OutcomeCompleted, 50*time.Millisecond)
	collector.RecordPass(OutcomeFailed, time.Millisecond)

	if got := testutil.ToFloat64(collector.pass.passesTotal.WithLabelValues(OutcomeCompleted)); got != 2 {
		t.Errorf("expected 2 completed passes, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pass.passesTotal.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("expected 1 failed pass, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.pass.passDuration); got != 1 {
		t.Errorf("expected one duration histogram, got %d", got)
	}
}

func TestCollector_RecordDeleted(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordDeleted(100)
	collector.RecordDeleted(250)
	collector.RecordDeleted(0)

	if got := testutil.ToFloat64(collector.pass.deletedTotal); got != 3 {
		t.Errorf("expected 3 deletions, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pass.deletedBytes); got != 350 {
		t.Errorf("expected 350 bytes, got %v", got)
	}
}

func TestCollector_ClampedArchivedFailures(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordClamped(3)
	collector.RecordClamped(0)
	collector.RecordArchived("zstd")
	collector.RecordDeletionFailure("delete")

	if got := testutil.ToFloat64(collector.pass.clampedTotal); got != 3 {
		t.Errorf("expected 3 clamped, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pass.archivedTotal.WithLabelValues("zstd")); got != 1 {
		t.Errorf("expected 1 archived, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pass.failuresTotal.WithLabelValues("delete")); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestCollector_RecordPolicyApplied(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordPolicyApplied("", "keep_all", nil)
	collector.RecordPolicyApplied("keep_all", "10 files", nil)
	collector.RecordPolicyApplied("10 files", "", errors.New("bad policy"))

	expected := `
# HELP test_retention_policy_info Active retention policy, labelled by its description
# TYPE test_retention_policy_info gauge
test_retention_policy_info{policy="10 files"} 1
`
	if err := testutil.CollectAndCompare(collector.policy.active, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(collector.policy.appliedTotal.WithLabelValues("accepted")); got != 2 {
		t.Errorf("expected 2 accepted, got %v", got)
	}
	if got := testutil.ToFloat64(collector.policy.appliedTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("expected 1 rejected, got %v", got)
	}
}

func TestCollector_SetVersions(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.SetVersions(3, 9, 7)

	if got := testutil.ToFloat64(collector.segments.lowest); got != 3 {
		t.Errorf("lowest = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.segments.highest); got != 9 {
		t.Errorf("highest = %v, want 9", got)
	}
	if got := testutil.ToFloat64(collector.segments.floor); got != 7 {
		t.Errorf("floor = %v, want 7", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordDeleted(100)
	collector.RecordPass(OutcomeCompleted, time.Millisecond)

	if got := testutil.ToFloat64(collector.pass.deletedTotal); got != 0 {
		t.Errorf("disabled collector recorded %v deletions", got)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var collector *Collector

	collector.RecordPass(OutcomeCompleted, time.Millisecond)
	collector.RecordDeleted(1)
	collector.RecordClamped(1)
	collector.RecordArchived("gzip")
	collector.RecordDeletionFailure("delete")
	collector.RecordPolicyApplied("", "keep_all", nil)
	collector.SetVersions(1, 2, 3)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordDeleted(1)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_retention_segments_deleted_total 1") {
		t.Errorf("metrics output missing deletion counter:\n%s", rec.Body.String())
	}
}
