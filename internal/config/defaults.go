package config

const (
	defaultInboxDir              = "~/videos/inbox"
	defaultArchiveDir            = "~/videos/uploaded"
	defaultReviewDir             = "~/videos/review"
	defaultDataDir               = "~/.local/share/ytpub"
	defaultLogDir                = "~/.local/share/ytpub/logs"
	defaultClientSecretPath      = "~/.config/ytpub/client_secret.json"
	defaultTokenPath             = "~/.config/ytpub/token.json"
	defaultUploadURL             = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultAPIBaseURL            = "https://www.googleapis.com/youtube/v3"
	defaultCategoryID            = "27"
	defaultPrivacyStatus         = "public"
	defaultChunkSizeMiB          = 8
	defaultTransientRetrySeconds = 5
	defaultMinFreeSpaceGiB       = 1
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 60
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   defaultInboxDir,
			ArchiveDir: defaultArchiveDir,
			ReviewDir:  defaultReviewDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		YouTube: YouTube{
			ClientSecretPath: defaultClientSecretPath,
			TokenPath:        defaultTokenPath,
			UploadURL:        defaultUploadURL,
			APIBaseURL:       defaultAPIBaseURL,
			CategoryID:       defaultCategoryID,
			PrivacyStatus:    defaultPrivacyStatus,
		},
		Upload: Upload{
			ChunkSizeMiB:          defaultChunkSizeMiB,
			TransientRetrySeconds: defaultTransientRetrySeconds,
			MinFreeSpaceGiB:       defaultMinFreeSpaceGiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Uploads:        true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Cleanup: Cleanup{
			ArchiveCompleted: true,
		},
	}
}
