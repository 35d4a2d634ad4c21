// Package logger builds the process-wide structured logger.
//
//   - logger.go: handler construction and runtime level control
//   - context.go: logger and run id propagation through context
//   - redact.go: masking of secrets and truncation of stored values
//
// Components receive a *slog.Logger. The level is held in a shared
// slog.LevelVar so it can be changed while the server runs, for example
// when the configuration file is edited.
package logger
