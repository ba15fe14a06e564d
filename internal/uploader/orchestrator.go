package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ytpub/internal/logging"
	"ytpub/internal/services"
	"ytpub/internal/sidecar"
)

const defaultRetryInterval = 5 * time.Second

// Result describes a completed upload.
type Result struct {
	VideoID             string
	TagsDropped         bool
	DescriptionReplaced bool
	ThumbnailAttached   bool
	ThumbnailError      error
	TransientRetries    int
}

// Options tunes orchestrator behavior.
type Options struct {
	Logger *slog.Logger
	// RetryInterval is the pause between transient retries. Defaults to 5s.
	RetryInterval time.Duration
	// MaxTransientRetries bounds transient retries per upload. Zero means
	// retry until the failure stops being transient.
	MaxTransientRetries int
}

// Orchestrator drives one asset at a time through sanitization, resumable
// transfer, fallback remediation, and thumbnail attachment.
type Orchestrator struct {
	transport     Transport
	logger        *slog.Logger
	retryInterval time.Duration
	maxRetries    int
	pause         func(ctx context.Context, d time.Duration) error
}

// New builds an orchestrator over the given transport.
func New(transport Transport, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	return &Orchestrator{
		transport:     transport,
		logger:        logging.NewComponentLogger(logger, "uploader"),
		retryInterval: interval,
		maxRetries:    opts.MaxTransientRetries,
		pause:         sleepContext,
	}
}

// Upload publishes one asset. Transient failures resume the in-flight
// session after a fixed pause; tag and description rejections each trigger
// at most one envelope mutation followed by a fresh transfer from byte 0.
// Any other failure aborts with the asset left un-uploaded.
func (o *Orchestrator) Upload(ctx context.Context, meta sidecar.Metadata, asset AssetSource) (Result, error) {
	envelope := BuildEnvelope(meta)
	result := Result{}

	o.logger.Info("upload starting",
		logging.String("video", asset.VideoPath),
		logging.String("title", envelope.Title))

	for {
		videoID, err := o.transfer(ctx, envelope, asset, &result)
		if err == nil {
			result.VideoID = videoID
			break
		}

		switch Classify(err) {
		case CategoryTagsRejected:
			if result.TagsDropped {
				return result, services.Wrap(services.ErrExternalAPI, "uploading", "transfer",
					"tags rejected again after dropping tags", err)
			}
			result.TagsDropped = true
			envelope.DropTags()
			o.logger.Warn("tags rejected, retrying without tags", logging.Error(err))
		case CategoryDescriptionRejected:
			if result.DescriptionReplaced {
				return result, services.Wrap(services.ErrExternalAPI, "uploading", "transfer",
					"description rejected again after replacement", err)
			}
			result.DescriptionReplaced = true
			envelope.ReplaceDescription()
			o.logger.Warn("description rejected, retrying with placeholder", logging.Error(err))
		default:
			return result, services.Wrap(services.ErrExternalAPI, "uploading", "transfer",
				fmt.Sprintf("upload failed (%s)", Classify(err)), err)
		}
	}

	o.logger.Info("upload completed",
		logging.String(logging.FieldVideoID, result.VideoID),
		logging.Int("transient_retries", result.TransientRetries))

	o.attachThumbnail(ctx, asset, &result)
	return result, nil
}

// transfer runs one envelope to completion, resuming the same session
// across transient failures. Content rejections and fatal errors return to
// the caller; the session is always closed before returning.
func (o *Orchestrator) transfer(ctx context.Context, envelope Envelope, asset AssetSource, result *Result) (string, error) {
	var session Session
	defer func() {
		if session != nil {
			_ = session.Close()
		}
	}()

	for {
		if session == nil {
			s, err := o.transport.Begin(ctx, envelope, asset)
			if err != nil {
				if Classify(err) != CategoryTransient {
					return "", err
				}
				if err := o.transientPause(ctx, result, err); err != nil {
					return "", err
				}
				continue
			}
			session = s
		}

		chunk, err := session.Next(ctx)
		if err != nil {
			if Classify(err) != CategoryTransient {
				return "", err
			}
			if err := o.transientPause(ctx, result, err); err != nil {
				return "", err
			}
			continue
		}
		if chunk.State == ChunkCompleted {
			return chunk.VideoID, nil
		}
		if chunk.TotalBytes > 0 {
			o.logger.Debug("chunk acknowledged",
				logging.Int64("bytes_sent", chunk.BytesSent),
				logging.Int64("total_bytes", chunk.TotalBytes))
		}
	}
}

func (o *Orchestrator) transientPause(ctx context.Context, result *Result, cause error) error {
	result.TransientRetries++
	if o.maxRetries > 0 && result.TransientRetries > o.maxRetries {
		return services.Wrap(services.ErrExternalAPI, "uploading", "retry",
			fmt.Sprintf("exhausted %d transient retries", o.maxRetries), cause)
	}
	o.logger.Warn("transient failure, pausing before retry",
		logging.Duration("pause", o.retryInterval),
		logging.Int("attempt", result.TransientRetries),
		logging.Error(cause))
	return o.pause(ctx, o.retryInterval)
}

// attachThumbnail issues the post-success thumbnail call. Failure is logged
// and recorded on the result; it never reverts the upload.
func (o *Orchestrator) attachThumbnail(ctx context.Context, asset AssetSource, result *Result) {
	if asset.ThumbnailPath == "" {
		return
	}
	if _, err := os.Stat(asset.ThumbnailPath); err != nil {
		o.logger.Warn("thumbnail missing, skipping attach",
			logging.String("thumbnail", asset.ThumbnailPath),
			logging.Error(err))
		return
	}
	if err := o.transport.AttachThumbnail(ctx, result.VideoID, asset.ThumbnailPath); err != nil {
		result.ThumbnailError = err
		o.logger.Warn("thumbnail attach failed, upload kept",
			logging.String(logging.FieldVideoID, result.VideoID),
			logging.Error(err))
		return
	}
	result.ThumbnailAttached = true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
