package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fingersatz/internal/logging"
)

func TestTrackerAcquireAndCleanup(t *testing.T) {
	tracker, err := NewTracker(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	first, err := tracker.Acquire("input-*.musicxml")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	second, err := tracker.Acquire("output-*.musicxml")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !strings.HasSuffix(first, ".musicxml") {
		t.Fatalf("expected pattern suffix, got %q", first)
	}
	if tracker.Remaining() != 2 {
		t.Fatalf("expected 2 tracked artifacts, got %d", tracker.Remaining())
	}

	tracker.Cleanup()

	for _, path := range []string{first, second} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %q to be removed", path)
		}
	}
	if tracker.Remaining() != 0 {
		t.Fatalf("expected empty registry after cleanup, got %d", tracker.Remaining())
	}
}

func TestTrackerReleaseIsExactlyOnce(t *testing.T) {
	tracker, err := NewTracker(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	path, err := tracker.Acquire("score-*.musicxml")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := tracker.Release(path); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := tracker.Release(path); err != nil {
		t.Fatalf("second Release should be a no-op, got %v", err)
	}
	if tracker.Remaining() != 0 {
		t.Fatalf("expected empty registry, got %d", tracker.Remaining())
	}

	// A released path recreated by someone else must survive Cleanup.
	if err := os.WriteFile(path, []byte("kept"), 0o644); err != nil {
		t.Fatalf("recreate file: %v", err)
	}
	tracker.Cleanup()
	if _, err := os.Stat(path); err != nil {
		t.Fatal("cleanup must not remove a released path")
	}
}

func TestTrackerAdoptRegistersExternalArtifacts(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewTracker(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	external := filepath.Join(dir, "downloaded.musicxml")
	if err := os.WriteFile(external, []byte("<score-partwise/>"), 0o644); err != nil {
		t.Fatalf("write external file: %v", err)
	}

	tracker.Adopt(external)
	tracker.Adopt(external)
	if tracker.Remaining() != 1 {
		t.Fatalf("expected duplicate adopt to be ignored, got %d tracked", tracker.Remaining())
	}

	tracker.Cleanup()
	if _, err := os.Stat(external); !os.IsNotExist(err) {
		t.Error("adopted artifact should have been removed")
	}
}

func TestTrackerCleanupSwallowsMissingFiles(t *testing.T) {
	tracker, err := NewTracker(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	path, err := tracker.Acquire("gone-*.musicxml")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// Must not panic or error even though the file is already gone.
	tracker.Cleanup()
	if tracker.Remaining() != 0 {
		t.Fatalf("expected empty registry, got %d", tracker.Remaining())
	}
}

func TestNewTrackerRequiresDir(t *testing.T) {
	if _, err := NewTracker("", logging.NewNop()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
