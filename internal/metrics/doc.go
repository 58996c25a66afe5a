// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Events received, by type
//   - WebSocket connect attempts, reconnects and frames by kind
//   - Undecodable text frames
package metrics
