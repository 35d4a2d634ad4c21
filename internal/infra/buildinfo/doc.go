// Package buildinfo exposes build-time version information and the
// per-process run id.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/shardkv/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not set, the module version and VCS revision recorded
// by the Go toolchain are used.
package buildinfo
