// Package httpserver provides the operations HTTP server for blueis.
//
// Endpoints:
//
//   - GET /health: liveness and build version
//   - GET /ready: storage engine ping, 503 when the database is unusable
//   - GET /metrics: Prometheus exposition
//
// Every request passes through the RequestID, Recover and AccessLog
// middleware chain.
package httpserver
