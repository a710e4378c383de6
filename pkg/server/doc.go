// Package server provides the walkeeper admin HTTP server.
//
// # Endpoints
//
//	GET  /health                 liveness
//	GET  /ready                  readiness (catalog and checkpoint checks)
//	GET  /version                build information
//	GET  /metrics                Prometheus metrics
//	GET  /v1/retention           active policy, version range and floor
//	POST /v1/retention/prune     run a prune pass now; ?boundary=N overrides
//	                             the default boundary (the highest version)
//	PUT  /v1/retention/policy    apply new policy text from the request body
//
// Responses are JSON. Errors use the shape:
//
//	{"error": {"type": "invalid_policy", "message": "..."}}
//
// # Middleware
//
// Every request passes through recovery, request ID, trace propagation and
// logging middleware, outermost first.
package server
