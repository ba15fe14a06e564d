package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	c.normalizeUpload()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("paths.review_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() error {
	var err error
	if strings.TrimSpace(c.YouTube.ClientSecretPath) == "" {
		if value, ok := os.LookupEnv("YTPUB_CLIENT_SECRET"); ok {
			c.YouTube.ClientSecretPath = strings.TrimSpace(value)
		} else {
			c.YouTube.ClientSecretPath = defaultClientSecretPath
		}
	}
	if c.YouTube.ClientSecretPath, err = expandPath(c.YouTube.ClientSecretPath); err != nil {
		return fmt.Errorf("youtube.client_secret_path: %w", err)
	}
	if strings.TrimSpace(c.YouTube.TokenPath) == "" {
		c.YouTube.TokenPath = defaultTokenPath
	}
	if c.YouTube.TokenPath, err = expandPath(c.YouTube.TokenPath); err != nil {
		return fmt.Errorf("youtube.token_path: %w", err)
	}
	c.YouTube.UploadURL = strings.TrimSpace(c.YouTube.UploadURL)
	if c.YouTube.UploadURL == "" {
		c.YouTube.UploadURL = defaultUploadURL
	}
	c.YouTube.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.APIBaseURL), "/")
	if c.YouTube.APIBaseURL == "" {
		c.YouTube.APIBaseURL = defaultAPIBaseURL
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultCategoryID
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	c.YouTube.PlaylistID = strings.TrimSpace(c.YouTube.PlaylistID)
	return nil
}

func (c *Config) normalizeUpload() {
	if c.Upload.ChunkSizeMiB <= 0 {
		c.Upload.ChunkSizeMiB = defaultChunkSizeMiB
	}
	if c.Upload.TransientRetrySeconds <= 0 {
		c.Upload.TransientRetrySeconds = defaultTransientRetrySeconds
	}
	if c.Upload.MaxTransientRetries < 0 {
		c.Upload.MaxTransientRetries = 0
	}
	if c.Upload.MinFreeSpaceGiB < 0 {
		c.Upload.MinFreeSpaceGiB = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("YTPUB_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
