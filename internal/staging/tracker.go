package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"fingersatz/internal/logging"
)

// Tracker registers every temporary artifact created while serving one
// request so a single deferred Cleanup can remove them on any exit path.
type Tracker struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	paths []string
}

// NewTracker creates a tracker rooted at dir, creating the directory when
// necessary.
func NewTracker(dir string, logger *slog.Logger) (*Tracker, error) {
	if dir == "" {
		return nil, errors.New("staging: tracker directory must be set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create directory %q: %w", dir, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory the tracker writes into.
func (t *Tracker) Dir() string {
	return t.dir
}

// Acquire creates a uniquely named temp file from pattern (os.CreateTemp
// semantics), registers it for cleanup, and returns its path.
func (t *Tracker) Acquire(pattern string) (string, error) {
	file, err := os.CreateTemp(t.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("staging: create temp file: %w", err)
	}
	path := file.Name()
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("staging: close temp file: %w", err)
	}
	t.register(path)
	return path, nil
}

// Adopt registers an externally created artifact for cleanup.
func (t *Tracker) Adopt(path string) {
	if path == "" {
		return
	}
	t.register(path)
}

// Release removes one artifact immediately and deregisters it. Removing an
// already-gone file is not an error, and a released path is never touched
// again by Cleanup.
func (t *Tracker) Release(path string) error {
	t.deregister(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("staging: remove %q: %w", path, err)
	}
	return nil
}

// Cleanup removes every artifact still registered. Failures are logged and
// swallowed so cleanup never masks the request outcome.
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("failed to remove staged artifact",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}

// Remaining reports how many artifacts are still registered.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.paths)
}

func (t *Tracker) register(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.paths {
		if existing == path {
			return
		}
	}
	t.paths = append(t.paths, path)
}

func (t *Tracker) deregister(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.paths {
		if existing == path {
			t.paths = append(t.paths[:i], t.paths[i+1:]...)
			return
		}
	}
}
