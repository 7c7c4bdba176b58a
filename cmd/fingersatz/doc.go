// Package main hosts the Fingersatz CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: score submission, job journal queries,
// daemon lifecycle control, notification tests, and configuration
// scaffolding. It centralizes configuration resolution, API address
// discovery, and output rendering so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
