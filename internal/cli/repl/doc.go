// Package repl provides the interactive mode of shardkv-cli.
//
//   - repl.go: read-eval-print loop
//   - args.go: splitting input lines into command arguments
//   - completer.go: command name lookup for the help command
//   - history.go: command history persistence
package repl
