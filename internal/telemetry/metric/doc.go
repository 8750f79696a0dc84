// Package metric provides Prometheus metrics for timerelay.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: scrape-time collector for event-loop owned state
//
// Metrics include:
//
//   - Connection counts and protocol errors
//   - Command counters and latency histograms
//   - Reply flush batches and bytes
//   - Scheduled, cancelled and dispatched tasks
//
// Metrics are exposed at /metrics in Prometheus format when the admin
// HTTP endpoint is enabled.
package metric
