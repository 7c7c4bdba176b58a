// Package daemon coordinates the long-running Fingersatz process and its
// system integration points.
//
// It wires configuration, the run journal, the request handler, the HTTP
// API, and the optional bucket-event consumer into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon also sweeps
// stale staging artifacts left behind by crashed runs and owns the test
// notification hook.
//
// Keep orchestration logic here: request processing lives in the handler
// package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
