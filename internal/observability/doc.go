// Package observability provides structured logging and Prometheus metrics
// for authgate.
//
// This package implements:
//   - zap logger construction from configuration
//   - authentication decision and stage latency metrics
//   - HTTP request instrumentation
package observability
