package config

import "time"

// Queue transport names.
const (
	TransportMemory = "memory"
	TransportRedis  = "redis"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port           int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel       string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes" validate:"required,gt=0"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`

	// ShutdownTimeoutSeconds bounds graceful shutdown, including draining
	// the in-memory job queue.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// QueueConfig selects and tunes the deferred persistence transport.
type QueueConfig struct {
	Transport          string `mapstructure:"transport" validate:"required,oneof=memory redis"`
	RedisURL           string `mapstructure:"redis_url" validate:"required_if=Transport redis"`
	Name               string `mapstructure:"name" validate:"required"`
	DeadLetterName     string `mapstructure:"dead_letter_name" validate:"required,nefield=Name"`
	Size               int    `mapstructure:"size" validate:"required,gt=0"`
	WorkerCount        int    `mapstructure:"worker_count" validate:"required,gt=0"`
	PollTimeoutSeconds int    `mapstructure:"poll_timeout_seconds" validate:"required,gt=0"`

	// WorkerMetricsPort is where cmd/worker serves /metrics and /health.
	WorkerMetricsPort int `mapstructure:"worker_metrics_port" validate:"required,gt=0,lt=65536"`
}

// PollTimeout is the blocking pop timeout used by queue consumers.
func (q QueueConfig) PollTimeout() time.Duration {
	return time.Duration(q.PollTimeoutSeconds) * time.Second
}

// CookieConfig controls the cart session cookie.
type CookieConfig struct {
	Secure bool `mapstructure:"secure"`
}
