// Package apiclient provides typed HTTP access to the daemon API.
//
// The client wraps the endpoints served by the daemon: fingering
// submission, job journal queries, daemon status, health probes, and
// notification tests. Transport failures are returned as errors;
// application-level failures arrive inside the typed responses so
// callers can render them.
package apiclient
