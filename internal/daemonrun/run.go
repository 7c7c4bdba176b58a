package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fingersatz/internal/config"
	"fingersatz/internal/daemon"
	"fingersatz/internal/deliver"
	"fingersatz/internal/deps"
	"fingersatz/internal/events"
	"fingersatz/internal/fingering"
	"fingersatz/internal/handler"
	"fingersatz/internal/jobs"
	"fingersatz/internal/logging"
	"fingersatz/internal/notifications"
	"fingersatz/internal/objectstore"
	"fingersatz/internal/services/pianoplayer"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

const currentLogName = "fingersatz.log"

// CurrentLogPath returns the stable pointer to the active daemon log file.
func CurrentLogPath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, currentLogName)
}

// Run starts the fingersatz daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("fingersatz-%s.log", runID))

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update fingersatz.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "fingersatzd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	journal, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job journal", logging.Error(err))
		return err
	}
	defer journal.Close()

	engine := pianoplayer.NewCLI(
		pianoplayer.WithBinary(deps.ResolveEnginePath(cfg.EngineBinary())),
		pianoplayer.WithTimeout(time.Duration(cfg.Engine.TimeoutSeconds)*time.Second),
	)

	var store objectstore.Store
	if cfg.CloudDelivery() || cfg.Events.Enabled {
		minioStore, storeErr := objectstore.New(cfg.ObjectStore)
		if storeErr != nil {
			logger.Error("connect object store", logging.Error(storeErr))
			return storeErr
		}
		if bucket := strings.TrimSpace(cfg.ObjectStore.OutputBucket); bucket != "" {
			ensureCtx, ensureCancel := context.WithTimeout(signalCtx, 10*time.Second)
			if err := minioStore.EnsureBucket(ensureCtx, bucket, cfg.ObjectStore.Region); err != nil {
				logger.Warn("output bucket not ready", logging.String(logging.FieldBucket, bucket), logging.Error(err))
			}
			ensureCancel()
		}
		store = minioStore
	}

	router, err := deliver.NewRouter(
		deliver.Mode(cfg.Delivery.Mode),
		store,
		time.Duration(cfg.Delivery.PresignExpirySeconds)*time.Second,
		logger,
	)
	if err != nil {
		return fmt.Errorf("configure delivery: %w", err)
	}

	h, err := handler.New(handler.Params{
		StagingDir: cfg.Paths.StagingDir,
		Defaults:   handler.DefaultsFromConfig(cfg),
		Store:      store,
		Generator:  fingering.NewGenerator(engine, logger),
		Router:     router,
		Journal:    journal,
		Notifier:   notifications.NewService(cfg),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	var consumer *events.Consumer
	if cfg.Events.Enabled {
		consumer, err = events.NewConsumer(cfg.Events, h, logger)
		if err != nil {
			return fmt.Errorf("configure event consumer: %w", err)
		}
	}

	d, err := daemon.New(cfg, journal, h, consumer, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("fingersatz daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, currentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	engine := deps.ResolveEnginePath(cfg.EngineBinary())
	logger.Info("dependency snapshot",
		logging.Bool("engine_available", binaryAvailable(engine)),
		logging.String("engine_binary", engine),
		logging.String("delivery_mode", cfg.Delivery.Mode),
		logging.Bool("object_store_configured", strings.TrimSpace(cfg.ObjectStore.Endpoint) != ""),
		logging.Bool("events_enabled", cfg.Events.Enabled),
		logging.Bool("ntfy_topic_present", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
