// Package bench drives load against a shardkv server for
// shardkv-benchmark.
//
// Each test runs a fixed number of requests spread over concurrent
// clients. Clients pipeline requests in batches and an optional shared
// token bucket caps the aggregate request rate.
package bench
