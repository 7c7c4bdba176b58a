package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckBinariesUnconfiguredCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Engine", Command: "   "}})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Available {
		t.Fatal("expected unconfigured command to be unavailable")
	}
	if results[0].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %s", results[0].Detail)
	}
}

func TestCheckEngineSidecar(t *testing.T) {
	tmp := t.TempDir()
	daemonPath := filepath.Join(tmp, executableName("fingersatzd"))
	enginePath := filepath.Join(tmp, executableName("pianoplayer"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(daemonPath, script, 0o755); err != nil {
		t.Fatalf("write daemon stub: %v", err)
	}
	if err := os.WriteFile(enginePath, script, 0o755); err != nil {
		t.Fatalf("write engine sidecar: %v", err)
	}
	restoreExecutablePath(t, daemonPath)

	status := CheckEngine("pianoplayer")
	if !status.Available {
		t.Fatalf("expected engine sidecar to be available, got detail %q", status.Detail)
	}
	if status.Command != enginePath {
		t.Fatalf("expected engine command %q, got %q", enginePath, status.Command)
	}
}

func TestCheckEnginePathFallback(t *testing.T) {
	tmp := t.TempDir()
	restoreExecutablePath(t, filepath.Join(tmp, executableName("fingersatzd")))

	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	enginePath := filepath.Join(binDir, executableName("pianoplayer"))
	if err := os.WriteFile(enginePath, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write engine stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := CheckEngine("pianoplayer")
	if !status.Available {
		t.Fatalf("expected PATH fallback to be available, got detail %q", status.Detail)
	}
	if status.Command != enginePath {
		t.Fatalf("expected engine command %q, got %q", enginePath, status.Command)
	}
}

func TestCheckEngineNotFound(t *testing.T) {
	tmp := t.TempDir()
	restoreExecutablePath(t, filepath.Join(tmp, executableName("fingersatzd")))
	t.Setenv("PATH", "")

	status := CheckEngine("pianoplayer")
	if status.Available {
		t.Fatal("expected engine resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when the engine is unavailable")
	}
}

func TestResolveEnginePathExplicit(t *testing.T) {
	explicit := filepath.Join(t.TempDir(), "engines", "pianoplayer")
	if got := ResolveEnginePath(explicit); got != explicit {
		t.Fatalf("expected explicit path to pass through, got %q", got)
	}
}

func TestResolveEnginePathDefaultsName(t *testing.T) {
	tmp := t.TempDir()
	restoreExecutablePath(t, filepath.Join(tmp, executableName("fingersatzd")))

	if got := ResolveEnginePath("  "); got != "pianoplayer" {
		t.Fatalf("expected default engine name, got %q", got)
	}
}

func restoreExecutablePath(t *testing.T, path string) {
	t.Helper()
	prev := executablePath
	executablePath = func() (string, error) { return path, nil }
	t.Cleanup(func() { executablePath = prev })
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
