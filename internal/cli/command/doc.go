// Package command provides the urfave/cli/v2 applications for
// shardkv-cli and shardkv-benchmark.
//
//   - root.go: shardkv-cli flags, single-command and REPL modes
//   - bench.go: shardkv-benchmark flags and result reporting
//
// The client runs one command when arguments follow the flags and
// starts the interactive REPL otherwise.
package command
