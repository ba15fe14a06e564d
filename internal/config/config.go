package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InboxDir   string `toml:"inbox_dir"`
	ArchiveDir string `toml:"archive_dir"`
	ReviewDir  string `toml:"review_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// YouTube contains OAuth credentials and API endpoint configuration.
type YouTube struct {
	ClientSecretPath string `toml:"client_secret_path"`
	TokenPath        string `toml:"token_path"`
	UploadURL        string `toml:"upload_url"`
	APIBaseURL       string `toml:"api_base_url"`
	CategoryID       string `toml:"category_id"`
	PrivacyStatus    string `toml:"privacy_status"`
	PlaylistID       string `toml:"playlist_id"`
}

// Upload contains transfer and retry tuning.
type Upload struct {
	ChunkSizeMiB          int `toml:"chunk_size_mib"`
	TransientRetrySeconds int `toml:"transient_retry_seconds"`
	// MaxTransientRetries bounds retry attempts per upload. Zero means
	// retry until the upload succeeds or fails for a non-transient reason.
	MaxTransientRetries int `toml:"max_transient_retries"`
	MinFreeSpaceGiB     int `toml:"min_free_space_gib"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Uploads        bool   `toml:"uploads"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	LogFile       string `toml:"log_file"`
	RetentionDays int    `toml:"retention_days"`
}

// Cleanup contains configuration for post-upload asset handling.
type Cleanup struct {
	ArchiveCompleted bool `toml:"archive_completed"`
	RemoveCompleted  bool `toml:"remove_completed"`
}

// Config encapsulates all configuration values for ytpub.
//
// Configuration sections by subsystem:
//   - Paths: inbox, archive, review, data, and log directories
//   - YouTube: OAuth credential files and API endpoints
//   - Upload: chunk size, retry pacing, and disk space floor
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and heartbeat timeouts
//   - Logging: log format, level, and retention
//   - Cleanup: what happens to asset folders after a successful upload
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Upload        Upload        `toml:"upload"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Cleanup       Cleanup       `toml:"cleanup"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ytpub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/ytpub/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytpub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// ArchiveDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InboxDir, c.Paths.DataDir, c.Paths.LogDir, c.Paths.ReviewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) != "" {
		_ = os.MkdirAll(c.Paths.ArchiveDir, 0o755)
	}
	return nil
}

// QueueDatabasePath returns the SQLite queue database location.
func (c *Config) QueueDatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// LogConfigValues returns the subset of settings the logging package consumes.
func (c *Config) LogConfigValues() (level, format, logDir, logFile string) {
	return c.Logging.Level, c.Logging.Format, c.Paths.LogDir, c.Logging.LogFile
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
