package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"fingersatz/internal/config"
	"fingersatz/internal/deps"
	"fingersatz/internal/events"
	"fingersatz/internal/handler"
	"fingersatz/internal/jobs"
	"fingersatz/internal/logging"
	"fingersatz/internal/notifications"
	"fingersatz/internal/preflight"
	"fingersatz/internal/staging"
)

// Staging artifacts survive a normal run only when the process crashed
// mid-flight; the janitor reclaims them after a generous grace period.
const (
	janitorInterval  = time.Hour
	staleArtifactAge = 24 * time.Hour
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	journal  *jobs.Journal
	handler  *handler.Handler
	consumer *events.Consumer
	logPath  string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	DeliveryMode  string
	JournalDBPath string
	LockFilePath  string
	Jobs          jobs.HealthSummary
	Dependencies  []deps.Status
}

// New constructs a daemon with initialized dependencies. The event consumer
// is optional; everything else is required.
func New(cfg *config.Config, journal *jobs.Journal, h *handler.Handler, consumer *events.Consumer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || journal == nil || h == nil || logger == nil {
		return nil, errors.New("daemon requires config, journal, handler, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "fingersatzd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		journal:  journal,
		handler:  h,
		consumer: consumer,
		logPath:  filepath.Join(cfg.Paths.LogDir, "fingersatz.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock and launches the API server, the event
// consumer, and the staging janitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fingersatz daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	for _, result := range preflight.RunAll(d.ctx, d.cfg) {
		if result.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			slog.String("check", result.Name),
			slog.String("detail", result.Detail))
	}

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	if d.consumer != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.consumer.Run(d.ctx); err != nil {
				d.logger.Error("event consumer stopped", logging.Error(err))
			}
		}()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.runJanitor(d.ctx)
	}()

	d.running.Store(true)
	d.logger.Info("fingersatz daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("fingersatz daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Process runs one raw invocation payload through the pipeline.
func (d *Daemon) Process(ctx context.Context, raw []byte) handler.Envelope {
	return d.handler.Handle(ctx, raw)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// APIAddr reports the bound API listener address, or "" before Start.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		DeliveryMode:  d.cfg.Delivery.Mode,
		JournalDBPath: d.cfg.DatabasePath(),
		LockFilePath:  d.lockPath,
		Dependencies:  preflight.CheckSystemDeps(d.cfg),
	}
	if d.journal != nil {
		if health, err := d.journal.Health(ctx); err == nil {
			status.Jobs = health
		}
	}
	return status
}

func (d *Daemon) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	staging.CleanStale(d.cfg.Paths.StagingDir, staleArtifactAge, d.logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			staging.CleanStale(d.cfg.Paths.StagingDir, staleArtifactAge, d.logger)
		}
	}
}
