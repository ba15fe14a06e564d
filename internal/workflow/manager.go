// Package workflow drives queue items through the upload stage. A single
// manager owns one processing lane: items upload strictly one at a time.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ytpub/internal/config"
	"ytpub/internal/logging"
	"ytpub/internal/notifications"
	"ytpub/internal/queue"
	"ytpub/internal/services"
	"ytpub/internal/stage"
)

// Manager polls the queue and runs pending items through the upload stage.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	handler      stage.Handler
	notifier     notifications.Service
	heartbeat    *HeartbeatMonitor
	scanner      *Scanner
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error

	batchStart     time.Time
	batchProcessed int
	batchFailed    int
}

// NewManager assembles a workflow manager around an upload stage handler.
func NewManager(cfg *config.Config, store *queue.Store, handler stage.Handler, notifier notifications.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		handler:      handler,
		notifier:     notifier,
		heartbeat:    NewHeartbeatMonitor(store, cfg, logger),
		scanner:      NewScanner(cfg, store, logger),
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: pollInterval,
	}
}

// Start launches the background processing loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow manager already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.lastErr = nil

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()

	m.logger.Info("workflow manager started",
		logging.Duration("poll_interval", m.pollInterval))
	return nil
}

// Stop cancels the processing loop and waits for the in-flight item to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	m.logger.Info("workflow manager stopped")
}

// Running reports whether the processing loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent loop-level error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) run(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		if err := m.tick(ctx); err != nil && ctx.Err() == nil {
			m.recordError(err)
			m.logger.Error("workflow pass failed", logging.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick performs one scheduling pass: scan the inbox, reclaim stale items,
// then drain pending items one at a time.
func (m *Manager) tick(ctx context.Context) error {
	if _, err := m.scanner.Scan(ctx); err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}
	if _, err := m.heartbeat.ReclaimStale(ctx); err != nil {
		return fmt.Errorf("reclaim stale: %w", err)
	}
	return m.drain(ctx)
}

// RunUntilIdle processes pending items until the queue drains or ctx ends.
// Used by one-shot CLI invocations that do not run the daemon loop.
func (m *Manager) RunUntilIdle(ctx context.Context) error {
	return m.drain(ctx)
}

func (m *Manager) drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := m.store.NextPending(ctx)
		if err != nil {
			return fmt.Errorf("next pending: %w", err)
		}
		if item == nil {
			m.finishBatch(ctx)
			return nil
		}

		m.startBatchIfIdle()
		m.processItem(ctx, item)
	}
}

// processItem runs one queue item through the stage handler. All outcomes
// are persisted; only infrastructure failures are logged at error level.
func (m *Manager) processItem(ctx context.Context, item *queue.Item) {
	logger := m.logger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldCorrelationID, uuid.NewString()),
		logging.String("folder", item.FolderPath))
	logger.Info("processing queue item", logging.String("title", item.Title))

	item.Status = queue.StatusUploading
	item.SetProgress("Uploading", "Starting upload", 0)
	if err := m.store.Update(ctx, item); err != nil {
		m.recordError(fmt.Errorf("mark uploading: %w", err))
		return
	}

	if err := m.notifier.NotifyUploadStarted(ctx, item.Title); err != nil {
		logger.Warn("upload-started notification failed", logging.Error(err))
	}

	beatCtx, stopBeat := context.WithCancel(ctx)
	var beats sync.WaitGroup
	beats.Add(1)
	go func() {
		defer beats.Done()
		m.heartbeat.Beat(beatCtx, item.ID)
	}()

	stageErr := m.handler.Prepare(ctx, item)
	if stageErr == nil {
		if err := m.store.Update(ctx, item); err != nil {
			logger.Warn("failed to persist prepared item", logging.Error(err))
		}
		stageErr = m.handler.Execute(ctx, item)
	}

	stopBeat()
	beats.Wait()

	if stageErr != nil {
		m.settleFailure(ctx, item, stageErr, logger)
	} else {
		m.settleSuccess(ctx, item, logger)
	}

	if err := m.store.Update(ctx, item); err != nil {
		m.recordError(fmt.Errorf("persist item outcome: %w", err))
		logger.Error("failed to persist item outcome", logging.Error(err))
	}
}

func (m *Manager) settleSuccess(ctx context.Context, item *queue.Item, logger *slog.Logger) {
	m.batchProcessed++
	item.LastHeartbeat = nil
	logger.Info("upload completed",
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.Bool("tags_dropped", item.TagsDropped),
		logging.Bool("description_replaced", item.DescriptionReplaced),
		logging.Int("transient_retries", item.TransientRetries))
	if err := m.notifier.NotifyUploadCompleted(ctx, item.Title, item.VideoID); err != nil {
		logger.Warn("upload-completed notification failed", logging.Error(err))
	}
}

func (m *Manager) settleFailure(ctx context.Context, item *queue.Item, stageErr error, logger *slog.Logger) {
	m.batchFailed++
	reason := stageErr.Error()

	if services.NeedsReview(stageErr) {
		item.SetReview(reason)
		logger.Warn("item parked for review", logging.String("reason", reason))
		if err := m.notifier.NotifyReviewRequired(ctx, item.Title, reason); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
		return
	}

	item.SetFailed(reason)
	logger.Error("upload failed", logging.String("reason", reason))
	if err := m.notifier.NotifyUploadFailed(ctx, item.Title, reason); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}

func (m *Manager) startBatchIfIdle() {
	if m.batchStart.IsZero() {
		m.batchStart = time.Now()
		m.batchProcessed = 0
		m.batchFailed = 0
	}
}

// finishBatch fires the queue-completed notification once per drained batch.
func (m *Manager) finishBatch(ctx context.Context) {
	if m.batchStart.IsZero() {
		return
	}
	duration := time.Since(m.batchStart)
	processed, failed := m.batchProcessed, m.batchFailed
	m.batchStart = time.Time{}

	if processed == 0 && failed == 0 {
		return
	}
	if err := m.notifier.NotifyQueueCompleted(ctx, processed, failed, duration); err != nil {
		m.logger.Warn("queue-completed notification failed", logging.Error(err))
	}
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// HealthCheck surfaces stage readiness plus queue connectivity.
func (m *Manager) HealthCheck(ctx context.Context) stage.Health {
	if _, err := m.store.Health(ctx); err != nil {
		return stage.Unhealthy("workflow", fmt.Sprintf("queue unavailable: %v", err))
	}
	return m.handler.HealthCheck(ctx)
}
