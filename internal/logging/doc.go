// Package logging assembles structured slog loggers and formatting helpers used
// across mkvbatch.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and tees console output with the persistent log file. Context
// helpers tag every line of a batch with its run ID. A no-op logger is
// available for tests and wiring code that cannot fail.
package logging
