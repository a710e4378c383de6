package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for retention spans.
const (
	AttrPassID     = "walkeeper.pass_id"
	AttrPolicy     = "walkeeper.policy"
	AttrBoundary   = "walkeeper.boundary"
	AttrFloor      = "walkeeper.floor"
	AttrCandidates = "walkeeper.candidates"
	AttrDeleted    = "walkeeper.deleted"
	AttrClamped    = "walkeeper.clamped"
	AttrVersion    = "walkeeper.version"
)

// PassStartAttributes returns the attributes known when a prune pass starts.
func PassStartAttributes(passID, policy string, boundary int64) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrPassID, passID),
		attribute.String(AttrPolicy, policy),
		attribute.Int64(AttrBoundary, boundary),
	)
}

// SetPassResult records the outcome of a prune pass on its span.
func SetPassResult(span trace.Span, floor int64, candidates, deleted, clamped int) {
	span.SetAttributes(
		attribute.Int64(AttrFloor, floor),
		attribute.Int(AttrCandidates, candidates),
		attribute.Int(AttrDeleted, deleted),
		attribute.Int(AttrClamped, clamped),
	)
}

// AddSegmentEvent adds a per-segment event such as "archived" or "deleted".
func AddSegmentEvent(span trace.Span, name string, version int64) {
	span.AddEvent(name, trace.WithAttributes(attribute.Int64(AttrVersion, version)))
}
