// Package preflight provides readiness checks for external services
// and filesystem paths that Fingersatz depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs failures before
//     accepting work, so a broken object store or missing directory
//     surfaces immediately instead of on the first request.
//   - The CLI "fingersatz status" command uses individual check functions
//     (CheckObjectStore, CheckDirectoryAccess) to display service health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
