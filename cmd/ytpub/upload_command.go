package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ytpub/internal/assets"
	"ytpub/internal/sidecar"
	"ytpub/internal/uploader"
)

// newUploadCommand uploads one asset folder immediately, bypassing the queue.
func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <folder>",
		Short: "Upload a single asset folder now",
		Long:  "Uploads the given asset folder directly without enqueueing it. The folder must contain exactly one video and one metadata sidecar.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := ctx.authenticatedClient(cmd.Context())
			if err != nil {
				return err
			}

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve folder path: %w", err)
			}
			folder, ok, err := assets.Inspect(dir)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("folder %s holds no video file", dir)
			}

			meta, err := sidecar.Load(folder.SidecarPath, folder.VideoPath, sidecar.Defaults{
				CategoryID:    cfg.YouTube.CategoryID,
				PrivacyStatus: cfg.YouTube.PrivacyStatus,
				PlaylistID:    cfg.YouTube.PlaylistID,
			})
			if err != nil {
				return err
			}

			transport := uploader.NewHTTPTransport(client, uploader.HTTPOptions{
				UploadURL: cfg.YouTube.UploadURL,
				ChunkSize: int64(cfg.Upload.ChunkSizeMiB) << 20,
			})
			orchestrator := uploader.New(transport, uploader.Options{
				RetryInterval:       time.Duration(cfg.Upload.TransientRetrySeconds) * time.Second,
				MaxTransientRetries: cfg.Upload.MaxTransientRetries,
			})

			result, err := orchestrator.Upload(cmd.Context(), meta, uploader.AssetSource{
				VideoPath:     folder.VideoPath,
				ThumbnailPath: folder.ThumbnailPath,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s as video %s\n", meta.Title, result.VideoID)
			if result.TagsDropped {
				fmt.Fprintln(out, "Note: tags were rejected and dropped")
			}
			if result.DescriptionReplaced {
				fmt.Fprintln(out, "Note: description was rejected and replaced with a placeholder")
			}
			if result.ThumbnailError != nil {
				fmt.Fprintf(out, "Note: thumbnail attachment failed: %v\n", result.ThumbnailError)
			}
			return nil
		},
	}
}
