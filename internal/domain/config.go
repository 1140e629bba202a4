package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Cache       CacheConfig    `mapstructure:"cache"`
	SMS         SMSConfig      `mapstructure:"sms"`
	Reminders   ReminderConfig `mapstructure:"reminders"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig represents database connection configuration.
// Driver selects "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// CacheConfig configures the coordination cache used for run locks and
// inbound message dedupe. An empty RedisURL selects the in-memory cache.
type CacheConfig struct {
	RedisURL      string        `mapstructure:"redis_url"`
	PoolSize      int           `mapstructure:"pool_size"`
	PoolTimeout   time.Duration `mapstructure:"pool_timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	MemoryMaxKeys int           `mapstructure:"memory_max_keys"`
	DedupeTTL     time.Duration `mapstructure:"dedupe_ttl"`
}

// SMSConfig represents messaging gateway configuration
type SMSConfig struct {
	Provider           string        `mapstructure:"provider"` // "twilio", "console"
	AccountSID         string        `mapstructure:"account_sid"`
	AuthToken          string        `mapstructure:"auth_token"`
	FromNumber         string        `mapstructure:"from_number"`
	RateLimit          int           `mapstructure:"rate_limit"` // messages per second
	Timeout            time.Duration `mapstructure:"timeout"`
	BreakerMaxRequests uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval    time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
	ValidateSignatures bool          `mapstructure:"validate_signatures"`
	PublicWebhookURL   string        `mapstructure:"public_webhook_url"`
}

// ReminderConfig represents the reminder job schedule and fan-out limits
type ReminderConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	At             string        `mapstructure:"at"` // optional HH:MM, overrides Interval with a daily run
	TimeZone       string        `mapstructure:"time_zone"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	RunOnStart     bool          `mapstructure:"run_on_start"`
	TriggerToken   string        `mapstructure:"trigger_token"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
