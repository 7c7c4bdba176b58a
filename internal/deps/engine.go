package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var executablePath = os.Executable

// ResolveEnginePath returns the fingering engine binary the daemon should
// execute.
//
// Bundled installs drop the engine next to the fingersatz executable, so
// the lookup prefers that sidecar before falling back to resolving the
// configured name from PATH. Configured values containing a path separator
// are taken verbatim.
func ResolveEnginePath(configured string) string {
	name := strings.TrimSpace(configured)
	if name == "" {
		name = "pianoplayer"
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	if candidate, ok := engineSidecarCandidate(name); ok {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate
		}
	}
	return name
}

// CheckEngine reports the fingering engine binary the pipeline will run,
// following the same lookup order as ResolveEnginePath so status output
// matches what the daemon actually executes.
func CheckEngine(configured string) Status {
	result := Status{
		Name:        "pianoplayer",
		Description: "Required for fingering computation",
	}

	resolved := ResolveEnginePath(configured)
	if path, err := exec.LookPath(resolved); err == nil {
		result.Command = path
		result.Available = true
		return result
	}

	result.Command = resolved
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", resolved)
	return result
}

func engineSidecarCandidate(name string) (string, bool) {
	self, err := executablePath()
	if err != nil || self == "" {
		return "", false
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(self), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
