package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"fingersatz/internal/config"
	"fingersatz/internal/deps"
	"fingersatz/internal/objectstore"
)

// CheckObjectStore verifies that the object store endpoint is reachable and
// the configured output bucket exists. It uses a 5-second timeout and a
// single attempt (no retries).
func CheckObjectStore(ctx context.Context, cfg config.ObjectStore) Result {
	const name = "Object store"

	if strings.TrimSpace(cfg.Endpoint) == "" {
		return Result{Name: name, Detail: "missing endpoint"}
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return Result{Name: name, Detail: "missing credentials"}
	}

	store, err := objectstore.New(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	bucket := strings.TrimSpace(cfg.OutputBucket)
	if bucket == "" {
		// Output buckets can be derived per request, so probe an
		// arbitrary name: a clean "not found" still proves the
		// endpoint and credentials work.
		if _, err := store.BucketExists(checkCtx, "fingersatz-preflight"); err != nil {
			return Result{Name: name, Detail: summarizeStoreError(err)}
		}
		return Result{Name: name, Passed: true, Detail: "endpoint reachable"}
	}

	exists, err := store.BucketExists(checkCtx, bucket)
	if err != nil {
		return Result{Name: name, Detail: summarizeStoreError(err)}
	}
	if !exists {
		return Result{Name: name, Detail: fmt.Sprintf("bucket %q not found", bucket)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %q reachable", bucket)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates all system-level dependencies for the given
// config. Both the daemon and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return []deps.Status{
		deps.CheckEngine(cfg.EngineBinary()),
	}
}

// summarizeStoreError produces a human-readable summary for object store
// probe failures.
func summarizeStoreError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "probe timed out (object store unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "probe timed out (object store unreachable)"
	}
	return err.Error()
}
