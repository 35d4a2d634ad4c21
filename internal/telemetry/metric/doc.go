// Package metric exposes shardkv metrics in Prometheus format.
//
//   - prometheus.go: registry, connection and command metrics, HTTP handler
//   - collector.go: storage engine statistics read at scrape time
//
// Registry implements redisserver.Metrics so the protocol server can
// report into it directly.
package metric
