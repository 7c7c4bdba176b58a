// Package jobs persists a journal of processed requests backed by SQLite.
// Every handled invocation records one terminal row: where the score came
// from, where the result went, and how the run ended. The daemon reads the
// journal for its status and history endpoints; the CLI lists it for
// operators.
package jobs
