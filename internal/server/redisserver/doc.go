// Package redisserver provides the Redis protocol compatible server for
// shardkv.
//
// A single event loop goroutine owns the listening socket, the readiness
// poller and every connection. Parsed commands are executed by a fixed
// pool of worker goroutines; their replies are handed back to the loop,
// which writes them to each connection in request order.
//
// Supported commands:
//   - PING
//   - SET, SETEX, GET, DEL, EXISTS
//   - EXPIRE, TTL
//   - KEYS
package redisserver
