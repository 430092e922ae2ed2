// Package metric provides Prometheus metrics for blueis.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, command and connection metrics, HTTP handler
//   - collector.go: storage statistics collector
//
// Metrics include:
//
//   - Command counts and latency histograms by command and status
//   - Connection, blocked client and monitor subscriber gauges
//   - Storage errors, list and element counts, database file size
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
