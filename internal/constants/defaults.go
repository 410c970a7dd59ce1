package constants

// Default server configuration values
const (
	DefaultServerHost = "localhost"
	DefaultServerPort = 1909

	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Default relay pipeline values
const (
	DefaultQueueSize    = 256
	DefaultRelayWorkers = 4

	// Placeholders used when a forwarded message carries no text
	EmptyMessagePlaceholder = "(empty message)"
	MediaMessagePlaceholder = "(media message)"
)

// Default persistence values
const (
	DefaultMySQLPort             = 3306
	DefaultMaxOpenConns          = 10
	DefaultMaxIdleConns          = 5
	DefaultConnMaxLifetimeMin    = 30
	DefaultDatabaseRetryAttempts = 3
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
)

// Default media staging values
const (
	DefaultMediaDir             = "media"
	AvatarSubdir                = "avatars"
	StagingSubdir               = "temp"
	DefaultStagingSweepMinutes  = 60
	DefaultStagingMaxAgeMinutes = 120
	DefaultWebhookTimeoutSec    = 0 // no timeout on the forward path
)

// Default Telegram connector values
const (
	DefaultSessionFile          = "telegram_session.txt"
	DefaultConnectTimeoutSec    = 60
	DefaultDisconnectTimeoutSec = 5
)

// Avatar URL path prefix served by the HTTP front-end
const AvatarURLPrefix = "/ava/"

// Miscellaneous
const (
	ServerErrorChannelSize = 1
)
