// Package metric provides Prometheus metrics for the Foxy server.
//
// Metric families:
//
//   - foxy_connections_*: accepted, active, rejected and failed accepts
//   - foxy_requests_*: per verb/status counts, latency, parse failures
//   - foxy_sessions_*: active sessions and lifecycle events
//
// A Registry owns its own prometheus.Registry so several servers (and
// tests) never collide on the global default registerer.
package metric
