package testsupport

import (
	"path/filepath"
	"testing"

	"ytpub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.ReviewDir = filepath.Join(base, "review")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.YouTube.ClientSecretPath = filepath.Join(base, "client_secret.json")
	cfg.YouTube.TokenPath = filepath.Join(base, "token.json")
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 5

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithNtfyTopic points notifications at the given endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// WithArchiveCompleted toggles post-upload archiving.
func WithArchiveCompleted(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cleanup.ArchiveCompleted = enabled
	}
}
