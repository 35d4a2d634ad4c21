// Package config defines the shardkv server configuration.
//
//   - spec.go: ServerConfig and its log rendering
//   - default.go: default values and accepted ranges
//   - verify.go: tolerant normalization of raw loaded values
//   - convert.go: mapping onto storage and redisserver configs
//
// Raw values come from internal/infra/confloader. A setting that is
// unknown, malformed or out of range never fails startup; it keeps its
// default and is reported as an Issue.
package config
