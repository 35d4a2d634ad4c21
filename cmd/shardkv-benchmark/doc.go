// Package main provides the entry point for shardkv-benchmark.
//
// Usage:
//
//	shardkv-benchmark [-h host] [-p port] [-c clients] [-n requests] [-P pipeline] [--rate r] [-t tests]
//	shardkv-benchmark -c 50 -n 100000 -P 16 -t set,get
package main
