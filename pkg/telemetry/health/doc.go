// Package health serves liveness, readiness and version endpoints.
//
// Readiness aggregates named checks registered by the daemon: the segment
// catalog answers queries, the checkpoint marker is readable, and the
// retention engine holds a compiled policy. A failing check turns the
// readiness status to "degraded" and the endpoint to 503.
package health
