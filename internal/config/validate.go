package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		return errors.New("paths.inbox_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ReviewDir) == "" {
		return errors.New("paths.review_dir must be set")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if strings.TrimSpace(c.YouTube.ClientSecretPath) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/ytpub/config.toml"
		}
		return fmt.Errorf("youtube.client_secret_path is required. Set YTPUB_CLIENT_SECRET env var or edit %s (create with 'ytpub config init')", defaultPath)
	}
	switch c.YouTube.PrivacyStatus {
	case "public", "private", "unlisted":
	default:
		return fmt.Errorf("youtube.privacy_status must be public, private, or unlisted (got %q)", c.YouTube.PrivacyStatus)
	}
	if strings.TrimSpace(c.YouTube.CategoryID) == "" {
		return errors.New("youtube.category_id must be set")
	}
	return nil
}

func (c *Config) validateUpload() error {
	return ensurePositiveMap(map[string]int{
		"upload.chunk_size_mib":          c.Upload.ChunkSizeMiB,
		"upload.transient_retry_seconds": c.Upload.TransientRetrySeconds,
	})
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateCleanup() error {
	if c.Cleanup.ArchiveCompleted && c.Cleanup.RemoveCompleted {
		return errors.New("cleanup.archive_completed and cleanup.remove_completed are mutually exclusive")
	}
	if c.Cleanup.ArchiveCompleted && strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		return errors.New("paths.archive_dir must be set when cleanup.archive_completed is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
