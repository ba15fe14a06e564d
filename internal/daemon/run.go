package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"ytpub/internal/auth"
	"ytpub/internal/config"
	"ytpub/internal/logging"
	"ytpub/internal/notifications"
	"ytpub/internal/preflight"
	"ytpub/internal/queue"
	"ytpub/internal/uploader"
	"ytpub/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the ytpub daemon runtime loop and blocks until interrupted.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := buildLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	reportPreflight(signalCtx, cfg, logger)

	pidPath := filepath.Join(cfg.Paths.DataDir, "ytpub.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, manager, err := buildComponents(signalCtx, cfg, logger)
	if err != nil {
		return err
	}

	d, err := New(cfg, store, logger, manager)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("ytpub daemon shutting down")
	return nil
}

// RunOnce performs a single scan-and-drain pass without starting the daemon
// loop. Used by one-shot CLI invocations.
func RunOnce(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := buildLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, manager, err := buildComponents(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	scanner := workflow.NewScanner(cfg, store, logger)
	summary, err := scanner.Scan(signalCtx)
	if err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}
	logger.Info("inbox scan complete",
		logging.Int("added", len(summary.Added)),
		logging.Int("already_queued", summary.AlreadyQueued),
		logging.Int("skipped", len(summary.Skipped)))

	return manager.RunUntilIdle(signalCtx)
}

func buildLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level, format, logDir, logFile := cfg.LogConfigValues()
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	return logging.NewFromConfig(logging.LogConfig{
		Level:   level,
		Format:  format,
		LogDir:  logDir,
		LogFile: logFile,
	})
}

// buildComponents wires the queue store, authenticated transport, upload
// stage, and workflow manager from configuration.
func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*queue.Store, *workflow.Manager, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open queue store: %w", err)
	}

	tokens := auth.NewTokenStore(cfg.YouTube.TokenPath)
	client, err := auth.Client(ctx, cfg.YouTube.ClientSecretPath, tokens)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("build authenticated client: %w", err)
	}

	transport := uploader.NewHTTPTransport(client, uploader.HTTPOptions{
		Logger:    logger,
		UploadURL: cfg.YouTube.UploadURL,
		ChunkSize: int64(cfg.Upload.ChunkSizeMiB) << 20,
	})
	stageHandler := uploader.NewStage(cfg, transport, logger)
	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, stageHandler, notifier, logger)
	return store, manager, nil
}

func reportPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
