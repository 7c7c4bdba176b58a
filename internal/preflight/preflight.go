package preflight

import (
	"context"

	"fingersatz/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging directory (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))

	// Output directory (local deliveries land here)
	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}

	// Object store (cloud delivery and event triggers both need it)
	if cfg.CloudDelivery() || cfg.Events.Enabled {
		results = append(results, CheckObjectStore(ctx, cfg.ObjectStore))
	}

	return results
}
