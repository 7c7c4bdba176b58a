package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a thread-safe wrapper around bytes.Buffer for use in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

func TestShowLines(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := filepath.Join(env.cfg.Paths.LogDir, "fingersatz.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"show", "--lines", "2"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("show --lines: %v", err)
	}
	requireContains(t, out, "second")
	requireContains(t, out, "third")
	if strings.Contains(out, "first") {
		t.Fatalf("expected only last two lines, got %q", out)
	}
}

func TestShowWithoutLogFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"show"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "No log entries available")
}

func TestShowFollow(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := filepath.Join(env.cfg.Paths.LogDir, "fingersatz.log")
	if err := os.WriteFile(logPath, []byte("seed\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--api", env.apiAddr, "--config", env.configPath, "show", "--follow"})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	time.Sleep(100 * time.Millisecond)
	if err := appendLine(logPath, "followed"); err != nil {
		t.Fatalf("append log: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(stdout.String(), "followed") {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("show --follow execute: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("show --follow did not exit")
	}

	if !strings.Contains(stdout.String(), "followed") {
		t.Fatalf("expected follow output to include appended line, got %q", stdout.String())
	}
}
