package workflow

import (
	"context"
	"log/slog"
	"time"

	"ytpub/internal/config"
	"ytpub/internal/logging"
	"ytpub/internal/queue"
)

// HeartbeatMonitor keeps in-flight items visibly alive and reclaims items
// whose owner stopped heartbeating.
type HeartbeatMonitor struct {
	store    *queue.Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewHeartbeatMonitor builds a monitor from workflow configuration.
func NewHeartbeatMonitor(store *queue.Store, cfg *config.Config, logger *slog.Logger) *HeartbeatMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{
		store:    store,
		interval: time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second,
		timeout:  time.Duration(cfg.Workflow.HeartbeatTimeout) * time.Second,
		logger:   logging.NewComponentLogger(logger, "heartbeat"),
	}
}

// Beat updates the item heartbeat on a fixed interval until ctx is cancelled.
// Intended to run in its own goroutine for the duration of an upload.
func (m *HeartbeatMonitor) Beat(ctx context.Context, itemID int64) {
	if err := m.store.UpdateHeartbeat(ctx, itemID); err != nil {
		m.logger.Warn("heartbeat update failed",
			logging.Int64(logging.FieldItemID, itemID), logging.Error(err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.UpdateHeartbeat(ctx, itemID); err != nil {
				if ctx.Err() != nil {
					return
				}
				m.logger.Warn("heartbeat update failed",
					logging.Int64(logging.FieldItemID, itemID), logging.Error(err))
			}
		}
	}
}

// ReclaimStale returns items with expired heartbeats back to pending.
func (m *HeartbeatMonitor) ReclaimStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-m.timeout)
	reclaimed, err := m.store.ReclaimStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		m.logger.Warn("reclaimed stale uploads", logging.Int64("count", reclaimed))
	}
	return reclaimed, nil
}
