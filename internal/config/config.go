package config

import (
	"fmt"

	"telecord/internal/constants"

	"github.com/caarlos0/env/v11"
)

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

// ServerConfig holds the HTTP front-end bind address, which is also the base
// for persisted avatar URLs.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port int    `env:"PORT" envDefault:"1909"`
}

// TelegramConfig holds the MTProto credentials for the bridged user account.
type TelegramConfig struct {
	APIID       int    `env:"TELEGRAM_API_ID"`
	APIHash     string `env:"TELEGRAM_API_HASH"`
	Phone       string `env:"TELEGRAM_PHONE"`
	Password    string `env:"TELEGRAM_2FA_PASSWORD"`
	SessionFile string `env:"TELEGRAM_SESSION_FILE" envDefault:"telegram_session.txt"`
}

// DatabaseConfig holds the MySQL connection parameters.
type DatabaseConfig struct {
	Host     string `env:"MYSQL_HOST"`
	Port     int    `env:"MYSQL_PORT" envDefault:"3306"`
	User     string `env:"MYSQL_USER"`
	Password string `env:"MYSQL_PASSWORD"`
	Database string `env:"MYSQL_DATABASE"`
	MaxConns int    `env:"MYSQL_MAX_CONNS" envDefault:"10"`
}

// MediaConfig holds the local directories for avatars and staged media.
type MediaConfig struct {
	Dir              string `env:"MEDIA_DIR" envDefault:"media"`
	StagingMaxAgeMin int    `env:"STAGING_MAX_AGE_MINUTES" envDefault:"120"`
	StagingSweepMin  int    `env:"STAGING_SWEEP_MINUTES" envDefault:"60"`
}

// RelayConfig bounds the in-process pipeline.
type RelayConfig struct {
	QueueSize int `env:"QUEUE_SIZE" envDefault:"256"`
	Workers   int `env:"RELAY_WORKERS" envDefault:"4"`
}

// TracingConfig holds OpenTelemetry settings; disabled by default.
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"0.1"`
	UseStdout    bool    `env:"TRACING_USE_STDOUT" envDefault:"false"`
	Environment  string  `env:"TRACING_ENVIRONMENT" envDefault:"development"`
}

// Config holds the application configuration, populated from the environment.
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Database DatabaseConfig
	Media    MediaConfig
	Relay    RelayConfig
	Tracing  TracingConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if c.Telegram.APIID == 0 {
		return ConfigError{Message: "TELEGRAM_API_ID is required"}
	}
	if c.Telegram.APIHash == "" {
		return ConfigError{Message: "TELEGRAM_API_HASH is required"}
	}
	if c.Telegram.Phone == "" {
		return ConfigError{Message: "TELEGRAM_PHONE is required"}
	}
	if c.Database.Host == "" {
		return ConfigError{Message: "MYSQL_HOST is required"}
	}
	if c.Database.User == "" {
		return ConfigError{Message: "MYSQL_USER is required"}
	}
	if c.Database.Database == "" {
		return ConfigError{Message: "MYSQL_DATABASE is required"}
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = constants.DefaultMaxOpenConns
	}
	if c.Relay.QueueSize <= 0 {
		c.Relay.QueueSize = constants.DefaultQueueSize
	}
	if c.Relay.Workers <= 0 {
		c.Relay.Workers = constants.DefaultRelayWorkers
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ConfigError{Message: fmt.Sprintf("invalid PORT: %d", c.Server.Port)}
	}
	return nil
}

// AvatarBaseURL returns the public base under which persisted avatar files
// are served. Stored avatar URLs are derived from this once, at upsert time,
// so they stay stable across restarts.
func (c *Config) AvatarBaseURL() string {
	return fmt.Sprintf("http://%s:%d%s", c.Server.Host, c.Server.Port, constants.AvatarURLPrefix)
}
