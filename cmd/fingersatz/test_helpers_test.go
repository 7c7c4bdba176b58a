package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"fingersatz/internal/config"
	"fingersatz/internal/daemon"
	"fingersatz/internal/deliver"
	"fingersatz/internal/fingering"
	"fingersatz/internal/handler"
	"fingersatz/internal/jobs"
	"fingersatz/internal/logging"
	"fingersatz/internal/services/pianoplayer"
	"fingersatz/internal/testsupport"
)

type cliStubEngine struct{}

func (cliStubEngine) Assign(_ context.Context, req pianoplayer.Request) ([]int, error) {
	fingers := make([]int, len(req.Notes))
	for i := range fingers {
		fingers[i] = i%5 + 1
	}
	return fingers, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	journal    *jobs.Journal
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	baseDir := testsupport.BaseDir(cfg)
	configPath := filepath.Join(baseDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	journal := testsupport.MustOpenJournal(t, cfg)
	logger := logging.NewNop()

	router, err := deliver.NewRouter(deliver.ModeLocal, nil, time.Hour, logger)
	if err != nil {
		t.Fatalf("deliver.NewRouter: %v", err)
	}
	h, err := handler.New(handler.Params{
		StagingDir: cfg.Paths.StagingDir,
		Defaults:   handler.DefaultsFromConfig(cfg),
		Generator:  fingering.NewGenerator(cliStubEngine{}, logger),
		Router:     router,
		Journal:    journal,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("handler.New: %v", err)
	}

	d, err := daemon.New(cfg, journal, h, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		journal:    journal,
		daemon:     d,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
		baseDir:    baseDir,
	}

	t.Cleanup(func() {
		d.Stop()
		cancel()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := make([]string, 0, 4)
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
