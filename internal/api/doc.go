// Package api defines wire-format types and converters for the daemon's
// HTTP API layer. It translates internal journal models into
// transport-friendly DTOs that the CLI and other consumers can render
// without coupling to internal types.
//
// # Key Types
//
// JobEntry: transport representation of a journaled run with input/output
// references, processing options, and timing.
//
// DaemonStatus: aggregated runtime information including journal health
// and dependency availability.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers.
// Internal enums (jobs.Status) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
package api
