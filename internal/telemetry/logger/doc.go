// Package logger provides structured logging for timerelay.
//
// This package configures log/slog for the server binaries:
//
//   - logger.go: handler selection, log file output, runtime level
//   - redact.go: sensitive data redaction
//
// Components take a *slog.Logger and log with key/value pairs; payload
// attributes are reduced to their size before they reach the output.
package logger
