package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ytpub/internal/config"
	"ytpub/internal/fileutil"
	"ytpub/internal/logging"
	"ytpub/internal/queue"
	"ytpub/internal/services"
	"ytpub/internal/sidecar"
	"ytpub/internal/stage"
)

// UploadStage adapts the orchestrator to the workflow stage contract and
// handles post-upload asset folder cleanup.
type UploadStage struct {
	cfg          *config.Config
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewStage builds the upload stage from configuration and a transport.
func NewStage(cfg *config.Config, transport Transport, logger *slog.Logger) *UploadStage {
	if logger == nil {
		logger = logging.NewNop()
	}
	orchestrator := New(transport, Options{
		Logger:              logger,
		RetryInterval:       time.Duration(cfg.Upload.TransientRetrySeconds) * time.Second,
		MaxTransientRetries: cfg.Upload.MaxTransientRetries,
	})
	return &UploadStage{
		cfg:          cfg,
		orchestrator: orchestrator,
		logger:       logging.NewComponentLogger(logger, "upload-stage"),
	}
}

// Prepare validates the asset folder and resolves the item title.
func (s *UploadStage) Prepare(ctx context.Context, item *queue.Item) error {
	if _, err := os.Stat(item.VideoPath); err != nil {
		return services.Wrap(services.ErrValidation, "uploading", "stat video",
			fmt.Sprintf("video file missing: %s", item.VideoPath), err)
	}

	meta, err := s.loadMetadata(item)
	if err != nil {
		return err
	}
	item.Title = meta.Title
	item.SetProgress("Uploading", "Preparing upload", 0)
	return nil
}

// Execute runs the upload to completion and records the outcome.
func (s *UploadStage) Execute(ctx context.Context, item *queue.Item) error {
	meta, err := s.loadMetadata(item)
	if err != nil {
		return err
	}

	result, err := s.orchestrator.Upload(ctx, meta, AssetSource{
		VideoPath:     item.VideoPath,
		ThumbnailPath: item.ThumbnailPath,
	})
	item.TagsDropped = result.TagsDropped
	item.DescriptionReplaced = result.DescriptionReplaced
	item.TransientRetries = result.TransientRetries
	if err != nil {
		return err
	}

	item.VideoID = result.VideoID
	item.Status = queue.StatusCompleted
	item.SetProgress("Uploaded", "Upload complete", 100)

	s.cleanupFolder(item)
	return nil
}

// HealthCheck verifies the credential files the transport depends on.
func (s *UploadStage) HealthCheck(ctx context.Context) stage.Health {
	const name = "uploader"
	if !fileutil.PathExists(s.cfg.YouTube.ClientSecretPath) {
		return stage.Unhealthy(name, fmt.Sprintf("client secret missing at %s", s.cfg.YouTube.ClientSecretPath))
	}
	if !fileutil.PathExists(s.cfg.YouTube.TokenPath) {
		return stage.Unhealthy(name, fmt.Sprintf("token missing at %s, run 'ytpub auth login'", s.cfg.YouTube.TokenPath))
	}
	return stage.Healthy(name)
}

func (s *UploadStage) loadMetadata(item *queue.Item) (sidecar.Metadata, error) {
	return sidecar.Load(item.SidecarPath, item.VideoPath, sidecar.Defaults{
		CategoryID:    s.cfg.YouTube.CategoryID,
		PrivacyStatus: s.cfg.YouTube.PrivacyStatus,
		PlaylistID:    s.cfg.YouTube.PlaylistID,
	})
}

// cleanupFolder archives or removes the asset folder after success.
// Failures are logged; the upload outcome stands regardless.
func (s *UploadStage) cleanupFolder(item *queue.Item) {
	switch {
	case s.cfg.Cleanup.RemoveCompleted:
		if err := os.RemoveAll(item.FolderPath); err != nil {
			s.logger.Warn("failed to remove completed folder",
				logging.String("folder", item.FolderPath),
				logging.Error(err))
		}
	case s.cfg.Cleanup.ArchiveCompleted:
		dest, err := fileutil.MoveDirectory(item.FolderPath, s.cfg.Paths.ArchiveDir)
		if err != nil {
			s.logger.Warn("failed to archive completed folder",
				logging.String("folder", item.FolderPath),
				logging.Error(err))
			return
		}
		s.logger.Info("archived completed folder", logging.String("destination", dest))
	}
}
