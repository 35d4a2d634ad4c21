// Package connection provides the wire client used by shardkv-cli and
// shardkv-benchmark.
//
// A Client speaks the request/reply protocol over one TCP connection.
// Do sends a single command and waits for its reply; Send, Flush and
// Receive pipeline several commands on the same connection.
package connection
