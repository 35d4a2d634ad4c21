// Package main provides the entry point for shardkv-server.
//
// The server is an in-memory key-value store that speaks the Redis
// protocol, journals mutations to an append-only file and replays it on
// startup.
//
// Usage:
//
//	shardkv-server [flags] [config-file]
//	shardkv-server --config /etc/shardkv/shardkv.conf --port 6380
//
// Settings are read from defaults, then the config file, then SHARDKV_*
// environment variables (a .env file in the working directory is
// honored), then flags. Malformed settings keep their defaults and are
// logged as warnings. Editing the config file changes the log level
// without a restart.
package main
