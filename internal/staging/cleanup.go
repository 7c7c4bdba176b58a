package staging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fingersatz/internal/logging"
)

// CleanStaleResult contains the outcome of a stale staging cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staged artifacts older than maxAge. Requests that exit
// normally remove their own artifacts; this sweep reclaims leftovers from
// crashed processes. It returns the list of removed paths and any errors
// encountered.
func CleanStale(stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		path := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale staged artifact",
					logging.String("path", path),
					logging.Error(err),
				)
			}
		} else {
			result.Removed = append(result.Removed, path)
			if logger != nil {
				logger.Info("removed stale staged artifact",
					logging.String("path", path),
					logging.Duration("age", time.Since(info.ModTime())),
				)
			}
		}
	}

	return result
}
