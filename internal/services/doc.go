// Package services defines shared utilities consumed by the request handler
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, pipeline stages, and journal row
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent response statuses (400 for caller mistakes, 500 for
//     everything else).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the service.
package services
