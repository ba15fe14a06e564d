package workflow

import (
	"context"
	"log/slog"

	"ytpub/internal/assets"
	"ytpub/internal/config"
	"ytpub/internal/logging"
	"ytpub/internal/queue"
	"ytpub/internal/sidecar"
)

// Scanner walks the inbox for complete asset folders and enqueues them.
type Scanner struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// ScanSummary reports the outcome of a single inbox pass.
type ScanSummary struct {
	Added         []*queue.Item
	AlreadyQueued int
	Skipped       []assets.Skip
}

// NewScanner builds an inbox scanner.
func NewScanner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan discovers asset folders under the inbox and enqueues new ones.
// Incomplete folders are reported in the summary, not treated as errors.
func (s *Scanner) Scan(ctx context.Context) (ScanSummary, error) {
	summary := ScanSummary{}

	folders, skips, err := assets.Discover(s.cfg.Paths.InboxDir)
	if err != nil {
		return summary, err
	}
	summary.Skipped = skips
	for _, skip := range skips {
		s.logger.Warn("skipping incomplete asset folder",
			logging.String("folder", skip.Dir),
			logging.String("reason", skip.Reason))
	}

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		// A folder with any prior queue record is never re-enqueued by the
		// scanner. Otherwise a completed folder left in the inbox would be
		// uploaded again on every pass. Re-upload goes through
		// 'ytpub queue retry' or 'ytpub upload'.
		existing, err := s.store.FindLatestByFolder(ctx, folder.Dir)
		if err != nil {
			return summary, err
		}
		if existing != nil {
			summary.AlreadyQueued++
			continue
		}

		title := s.resolveTitle(folder)
		item, created, err := s.store.NewFolder(ctx, folder, title)
		if err != nil {
			return summary, err
		}
		if !created {
			summary.AlreadyQueued++
			continue
		}
		summary.Added = append(summary.Added, item)
		s.logger.Info("queued asset folder",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("folder", folder.Dir),
			logging.String("title", title))
	}

	return summary, nil
}

// resolveTitle reads the sidecar title for queue display. Sidecar problems
// are deferred to the upload stage, which reports them properly.
func (s *Scanner) resolveTitle(folder assets.Folder) string {
	meta, err := sidecar.Load(folder.SidecarPath, folder.VideoPath, sidecar.Defaults{
		CategoryID:    s.cfg.YouTube.CategoryID,
		PrivacyStatus: s.cfg.YouTube.PrivacyStatus,
		PlaylistID:    s.cfg.YouTube.PlaylistID,
	})
	if err != nil {
		return ""
	}
	return meta.Title
}
