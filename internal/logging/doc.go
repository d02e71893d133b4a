// Package logging provides slog helpers shared across the codebase:
// consistent attribute keys, safe error attributes, and PII-aware
// helpers for logging recipient addresses and OAuth tokens.
package logging
