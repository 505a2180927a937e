// Package logging assembles structured slog loggers and formatting helpers used
// across the extraction pipeline.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with the run
// ID, index bucket, and unit name. Warnings go through WarnWithContext so every
// one carries an event type, a hint, and the user-facing impact. NewNop gives
// tests and wiring code a logger that cannot fail.
package logging
