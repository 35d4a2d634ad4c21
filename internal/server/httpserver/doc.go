// Package httpserver provides the admin HTTP endpoint of shardkv-server.
//
// It serves Prometheus metrics, liveness and readiness probes and a JSON
// status summary on the metrics address. Every route runs behind the
// same middleware chain: panic recovery, request IDs, per-IP rate
// limiting and access logging.
package httpserver
