// Package httpserver provides the admin HTTP endpoint of timerelay-server.
//
// Routes:
//
//   - GET /metrics: Prometheus exposition
//   - GET /healthz: liveness with a snapshot of loop-owned counters
//   - GET /version: build information
//
// Every route runs behind Recover, RequestID, an optional network ACL,
// an optional per-IP rate limit and an access log.
package httpserver
