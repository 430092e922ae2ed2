// Package logger provides structured logging for blueis.
//
// This package configures log/slog for the server and the CLI:
//
//   - logger.go: handler construction and the dynamic level
//   - context.go: context-aware logging with client IDs
//   - redact.go: redaction of credentials and list payloads
//
// Features:
//
//   - JSON and text output formats
//   - Runtime level changes (config reload)
//   - List element payloads are never written verbatim
package logger
