// Package confloader loads layered configuration for shardkv.
//
// Sources are merged with koanf in priority order (later wins):
//
//  1. Configuration file (YAML by extension, otherwise flat key=value)
//  2. .env files (only variables not already set in the environment)
//  3. SHARDKV_ environment variables
//  4. Command-line flags via LoadMap
//
// The loader only collects raw values. Interpretation and defaulting
// belong to internal/server/config.
package confloader
