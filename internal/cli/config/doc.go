// Package config holds shardkv-cli settings.
//
//   - spec.go: CLIConfig and defaults
//   - loader.go: loading from ~/.shardkv/cli.yaml and SHARDKV_CLI_ variables
//
// Command-line flags override everything loaded here.
package config
