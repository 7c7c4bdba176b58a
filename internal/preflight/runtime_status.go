package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"fingersatz/internal/config"
	"fingersatz/internal/deps"
)

// CheckObjectStoreFromConfig evaluates object store status from config and
// connectivity.
func CheckObjectStoreFromConfig(cfg *config.Config) Result {
	const name = "Object store"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.CloudDelivery() && !cfg.Events.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	check := CheckObjectStore(context.Background(), cfg.ObjectStore)
	if check.Passed {
		return Result{Name: name, Passed: true, Detail: check.Detail}
	}
	return Result{Name: name, Detail: check.Detail}
}

// EngineProbe reports the current fingering engine snapshot.
type EngineProbe struct {
	Detected bool
	Path     string
	Version  string
}

// ProbeEngine attempts to locate the engine binary and read its version.
func ProbeEngine(configured string) EngineProbe {
	resolved := deps.ResolveEnginePath(configured)
	path, err := exec.LookPath(resolved)
	if err != nil {
		return EngineProbe{Path: resolved}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	probe := EngineProbe{Detected: true, Path: path, Version: "unknown"}
	output, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return probe
	}
	if text := strings.TrimSpace(string(output)); text != "" {
		probe.Version = firstLine(text)
	}
	return probe
}

// EngineDetail renders a display-friendly summary for status UIs.
func (p EngineProbe) EngineDetail() string {
	if !p.Detected {
		return fmt.Sprintf("engine %q not found", p.Path)
	}
	if p.Version == "unknown" {
		return p.Path
	}
	return fmt.Sprintf("%s (%s)", p.Path, p.Version)
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return text
}
