package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/maditrack-server/internal/domain"
	"github.com/spf13/viper"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from the config file, environment and defaults
func (m *Manager) loadConfig() error {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/maditrack/")

	// MADITRACK_SMS_AUTH_TOKEN -> sms.auth_token
	v.SetEnvPrefix("MADITRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "20s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "maditrack")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30m")
	v.SetDefault("database.sqlite_path", "./data/maditrack.db")
	v.SetDefault("database.migrations_path", "./migrations")
	v.SetDefault("database.auto_migrate", true)

	// Cache defaults
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.memory_max_keys", 10000)
	v.SetDefault("cache.dedupe_ttl", "24h")

	// SMS defaults
	v.SetDefault("sms.provider", "console")
	v.SetDefault("sms.account_sid", "")
	v.SetDefault("sms.auth_token", "")
	v.SetDefault("sms.from_number", "")
	v.SetDefault("sms.rate_limit", 10)
	v.SetDefault("sms.timeout", "10s")
	v.SetDefault("sms.breaker_max_requests", 3)
	v.SetDefault("sms.breaker_interval", "60s")
	v.SetDefault("sms.breaker_timeout", "30s")
	v.SetDefault("sms.validate_signatures", false)
	v.SetDefault("sms.public_webhook_url", "")

	// Reminder job defaults
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.interval", "24h")
	v.SetDefault("reminders.at", "")
	v.SetDefault("reminders.time_zone", "UTC")
	v.SetDefault("reminders.max_concurrency", 10)
	v.SetDefault("reminders.lock_ttl", "1h")
	v.SetDefault("reminders.run_on_start", false)
	v.SetDefault("reminders.trigger_token", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetCacheConfig returns cache configuration
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// GetSMSConfig returns messaging gateway configuration
func (m *Manager) GetSMSConfig() *domain.SMSConfig {
	return &m.config.SMS
}

// GetReminderConfig returns reminder job configuration
func (m *Manager) GetReminderConfig() *domain.ReminderConfig {
	return &m.config.Reminders
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Database.Driver {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("database sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", config.Database.Driver)
	}

	switch config.SMS.Provider {
	case "twilio":
		if config.SMS.AccountSID == "" || config.SMS.AuthToken == "" {
			return fmt.Errorf("twilio account_sid and auth_token are required")
		}
		if config.SMS.FromNumber == "" {
			return fmt.Errorf("sms from_number is required for the twilio provider")
		}
	case "console":
	default:
		return fmt.Errorf("unsupported sms provider: %q", config.SMS.Provider)
	}
	if config.SMS.ValidateSignatures {
		if config.SMS.AuthToken == "" {
			return fmt.Errorf("sms auth_token is required to validate webhook signatures")
		}
		if _, err := url.ParseRequestURI(config.SMS.PublicWebhookURL); err != nil {
			return fmt.Errorf("sms public_webhook_url must be an absolute URL when validating signatures: %w", err)
		}
	}

	if config.Reminders.Interval <= 0 {
		return fmt.Errorf("reminders interval must be positive")
	}
	if config.Reminders.At != "" {
		if _, err := time.Parse("15:04", config.Reminders.At); err != nil {
			return fmt.Errorf("invalid reminders at %q, expected HH:MM", config.Reminders.At)
		}
	}
	if _, err := time.LoadLocation(config.Reminders.TimeZone); err != nil {
		return fmt.Errorf("invalid reminders time_zone %q: %w", config.Reminders.TimeZone, err)
	}
	if config.Reminders.MaxConcurrency <= 0 {
		return fmt.Errorf("reminders max_concurrency must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns a formatted key/value database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetDatabaseURL returns the database as a postgres:// URL, as golang-migrate expects
func (m *Manager) GetDatabaseURL() string {
	db := m.config.Database
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.Username, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     "/" + db.Database,
		RawQuery: "sslmode=" + url.QueryEscape(db.SSLMode),
	}
	return u.String()
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
