// Package handler provides the admin HTTP handlers of shardkv-server.
//
// Routes:
//
//	GET /health   liveness, always 200 while the process serves HTTP
//	GET /ready    200 once the log is replayed and the listener is up, 503 before
//	GET /info     build, runtime and storage summary
//
// JSON bodies use the Response envelope.
package handler
