package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fingersatz/internal/api"
	"fingersatz/internal/apiclient"
	"fingersatz/internal/config"
	"fingersatz/internal/jobs"
	"fingersatz/internal/preflight"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
}

// ErrDaemonNotRunning indicates the daemon API is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Launch starts a detached fingersatz daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfgPath := strings.TrimSpace(opts.ConfigPath); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls the daemon API until it answers or the timeout elapses.
func WaitForAPI(client *apiclient.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		err := client.Ping(context.Background())
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon when its API is unreachable and waits
// for it to come up.
func EnsureStarted(client *apiclient.Client, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if err := client.Ping(context.Background()); err == nil {
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForAPI(client, waitTimeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true}, nil
}

// WaitForShutdown waits for the daemon API to stop answering.
func WaitForShutdown(client *apiclient.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := client.Ping(context.Background()); err != nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop: timeout waiting for shutdown")
}

// ProcessInfo reports whether the daemon API is reachable and the daemon
// PID when available.
func ProcessInfo(client *apiclient.Client) (bool, int, error) {
	status, err := client.Status(context.Background())
	if err != nil {
		if apiclient.IsUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, status.PID, nil
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	Signaled   bool
	ForcedKill bool
	PID        int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// StopAndTerminate signals the daemon process to shut down and force-kills
// it if still alive after gracePeriod. The PID comes from the daemon's
// status endpoint when reachable, the pid file otherwise.
func StopAndTerminate(client *apiclient.Client, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	pid := 0
	lockPath := ""
	status, statusErr := client.Status(context.Background())
	if statusErr == nil {
		pid = status.PID
		lockPath = status.LockFilePath
	} else if !apiclient.IsUnavailable(statusErr) {
		return StopResult{}, statusErr
	}

	logDir := DeriveLogDir(lockPath, cfg)
	if logDir == "" {
		return StopResult{}, fmt.Errorf("unable to determine daemon log directory")
	}
	pidPath := filepath.Join(logDir, "fingersatzd.pid")

	if pid == 0 {
		filePID, err := readPIDFile(pidPath)
		if err != nil {
			return StopResult{}, err
		}
		pid = filePID
	}
	if pid <= 0 {
		return StopResult{}, ErrDaemonNotRunning
	}

	result := StopResult{PID: pid}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return result, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	result.Signaled = true

	if err := WaitForShutdown(client, gracePeriod); err == nil {
		return result, nil
	}

	killedPID, killErr := ForceKillProcess(pidPath, filepath.Join(logDir, "fingersatzd.lock"), pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(client *apiclient.Client, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(client, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(client, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// DeriveLogDir determines the daemon log directory from status and config
// hints.
func DeriveLogDir(lockPath string, cfg *config.Config) string {
	if strings.TrimSpace(lockPath) != "" {
		return filepath.Dir(lockPath)
	}
	if cfg != nil && strings.TrimSpace(cfg.Paths.LogDir) != "" {
		return cfg.Paths.LogDir
	}
	return ""
}

// ForceKillProcess sends SIGKILL to the daemon process and cleans pid and
// lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	if filePID, err := readPIDFile(pidPath); err == nil && filePID > 0 {
		pid = filePID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pidStr := strings.TrimSpace(string(data))
	if pidStr == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid daemon pid %q in %s", pidStr, path)
	}
	return pid, nil
}

// StatusSnapshot aggregates everything the status command renders.
type StatusSnapshot struct {
	Daemon            api.DaemonStatus      `json:"daemon"`
	Reachable         bool                  `json:"reachable"`
	SystemChecks      []api.StatusLine      `json:"systemChecks"`
	Paths             []api.StatusLine      `json:"paths"`
	DependencySummary api.DependencySummary `json:"dependencySummary"`
	JobStats          map[string]int        `json:"jobStats"`
}

// BuildStatusSnapshot collects daemon status and applies offline fallbacks
// for job stats and dependency checks when the daemon is unreachable.
func BuildStatusSnapshot(ctx context.Context, client *apiclient.Client, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &StatusSnapshot{JobStats: map[string]int{}}

	if client != nil {
		if status, err := client.Status(ctx); err == nil && status != nil {
			snapshot.Daemon = *status
			snapshot.Reachable = true
		}
	}

	if !snapshot.Reachable {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if journal, openErr := jobs.Open(cfg); openErr == nil {
			if stats, statsErr := journal.Stats(queryCtx); statsErr == nil {
				for status, count := range stats {
					snapshot.JobStats[string(status)] = count
				}
			}
			if health, healthErr := journal.Health(queryCtx); healthErr == nil {
				snapshot.Daemon.Jobs = api.FromHealthSummary(health)
			}
			_ = journal.Close()
		}
		snapshot.Daemon.Dependencies = api.FromDependencyStatuses(preflight.CheckSystemDeps(cfg))
		snapshot.Daemon.JournalDBPath = cfg.DatabasePath()
		snapshot.Daemon.DeliveryMode = cfg.Delivery.Mode
	} else {
		snapshot.JobStats = jobStatsFromHealth(snapshot.Daemon.Jobs)
	}

	snapshot.SystemChecks = BuildSystemChecks(ctx, cfg, snapshot.Reachable && snapshot.Daemon.Running)
	snapshot.Paths = BuildPathChecks(cfg)
	snapshot.DependencySummary = BuildDependencySummary(snapshot.Daemon.Dependencies)
	return snapshot, nil
}

func jobStatsFromHealth(health api.JobsHealth) map[string]int {
	stats := map[string]int{}
	if health.Completed > 0 {
		stats[string(jobs.StatusCompleted)] = health.Completed
	}
	if health.Failed > 0 {
		stats[string(jobs.StatusFailed)] = health.Failed
	}
	return stats
}

// BuildSystemChecks resolves status lines combining runtime state and
// config checks.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, daemonRunning bool) []api.StatusLine {
	lines := make([]api.StatusLine, 0, 5)
	if daemonRunning {
		lines = append(lines, api.StatusLine{Label: "Fingersatz", Severity: "ok", Detail: "Running"})
	} else {
		lines = append(lines, api.StatusLine{Label: "Fingersatz", Severity: "warn", Detail: "Not running (run `fingersatz start`)"})
	}

	probe := preflight.ProbeEngine(cfg.EngineBinary())
	if probe.Detected {
		lines = append(lines, api.StatusLine{Label: "Engine", Severity: "ok", Detail: probe.EngineDetail()})
	} else {
		lines = append(lines, api.StatusLine{Label: "Engine", Severity: "error", Detail: probe.EngineDetail()})
	}

	store := preflight.CheckObjectStoreFromConfig(cfg)
	switch {
	case store.Passed && strings.EqualFold(strings.TrimSpace(store.Detail), "Disabled"):
		lines = append(lines, api.StatusLine{Label: "Object Store", Severity: "info", Detail: store.Detail})
	case store.Passed:
		lines = append(lines, api.StatusLine{Label: "Object Store", Severity: "ok", Detail: store.Detail})
	default:
		lines = append(lines, api.StatusLine{Label: "Object Store", Severity: "warn", Detail: store.Detail})
	}

	if cfg.Events.Enabled {
		lines = append(lines, api.StatusLine{Label: "Bucket Events", Severity: "ok", Detail: fmt.Sprintf("Consuming %q from %s", cfg.Events.Topic, strings.Join(cfg.Events.Brokers, ", "))})
	} else {
		lines = append(lines, api.StatusLine{Label: "Bucket Events", Severity: "info", Detail: "Disabled"})
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		lines = append(lines, api.StatusLine{Label: "Notifications", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, api.StatusLine{Label: "Notifications", Severity: "warn", Detail: "Not configured"})
	}

	return lines
}

// BuildPathChecks resolves working directory readiness.
func BuildPathChecks(cfg *config.Config) []api.StatusLine {
	checks := []struct {
		label string
		path  string
	}{
		{label: "Staging", path: cfg.Paths.StagingDir},
		{label: "Output", path: cfg.Paths.OutputDir},
		{label: "Logs", path: cfg.Paths.LogDir},
		{label: "Database", path: cfg.Paths.DatabaseDir},
	}
	lines := make([]api.StatusLine, 0, len(checks))
	for _, dir := range checks {
		if strings.TrimSpace(dir.path) == "" {
			lines = append(lines, api.StatusLine{Label: dir.label, Severity: "info", Detail: "Not configured"})
			continue
		}
		result := preflight.CheckDirectoryAccess(dir.label, dir.path)
		severity := "error"
		if result.Passed {
			severity = "ok"
		}
		lines = append(lines, api.StatusLine{Label: dir.label, Severity: severity, Detail: result.Detail})
	}
	return lines
}

// BuildDependencySummary computes aggregate dependency readiness.
func BuildDependencySummary(deps []api.DependencyStatus) api.DependencySummary {
	if len(deps) == 0 {
		return api.DependencySummary{
			Severity: "info",
			Detail:   "No dependency checks configured",
		}
	}

	missingRequired := 0
	missingOptional := 0
	for _, dep := range deps {
		if dep.Available {
			continue
		}
		if dep.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	missingCount := missingRequired + missingOptional
	available := len(deps) - missingCount
	severity := "ok"
	if missingRequired > 0 {
		severity = "error"
	} else if missingOptional > 0 {
		severity = "warn"
	}
	detail := fmt.Sprintf("%d/%d available (missing: %d required, %d optional)", available, len(deps), missingRequired, missingOptional)
	if missingCount == 0 {
		detail = fmt.Sprintf("%d/%d available", available, len(deps))
	}

	return api.DependencySummary{
		Total:           len(deps),
		Available:       available,
		MissingRequired: missingRequired,
		MissingOptional: missingOptional,
		Severity:        severity,
		Detail:          detail,
	}
}
