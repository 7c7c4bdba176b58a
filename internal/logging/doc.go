// Package logging assembles structured slog loggers and formatting helpers used
// across Fingersatz services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handler code can automatically
// tag log lines with request IDs, pipeline stages, and journal row IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
