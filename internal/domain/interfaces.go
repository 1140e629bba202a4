package domain

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetCacheConfig() *CacheConfig
	GetSMSConfig() *SMSConfig
	GetReminderConfig() *ReminderConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	IsProduction() bool
	IsDevelopment() bool
}
