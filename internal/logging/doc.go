// Package logging assembles structured slog loggers and formatting helpers used
// across Slackistrano.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so every line written while handling one
// CLI run or hook request carries the same correlation ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
