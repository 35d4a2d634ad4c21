// Package main provides the entry point for shardkv-cli.
//
// shardkv-cli sends commands to a shardkv server:
//
//	shardkv-cli [-h host] [-p port] [command [args...]]
//	shardkv-cli -p 6380 SET foo bar
//	shardkv-cli --output json KEYS 'user:*'
//
// With no command it starts an interactive REPL with history.
package main
