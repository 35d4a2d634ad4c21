// Package output renders server replies and benchmark progress for the
// command-line tools.
//
//   - formatter.go: Formatter interface and the text and raw renderers
//   - json.go: JSON rendering of replies
//   - progress.go: request progress bar for shardkv-benchmark
package output
