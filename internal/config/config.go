package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"dive,required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the backend: postgres for the server, sqlite for
	// single-user and offline setups.
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// SRSConfig tunes the scheduler.
type SRSConfig struct {
	InitialEaseFactor      float64 `mapstructure:"initial_ease_factor" validate:"gte=1.3"`
	MinEaseFactor          float64 `mapstructure:"min_ease_factor" validate:"gte=1.3,ltefield=InitialEaseFactor"`
	HardIntervalMultiplier float64 `mapstructure:"hard_interval_multiplier" validate:"gt=0"`
	EasyBonus              float64 `mapstructure:"easy_bonus" validate:"gte=1"`
	// JitterFraction of 0 disables jitter.
	JitterFraction float64 `mapstructure:"jitter_fraction" validate:"gte=0,lt=1"`
}

// StudyConfig holds product settings for study pacing and the dashboard.
type StudyConfig struct {
	PersonaLimits          map[string]int `mapstructure:"persona_limits" validate:"required,dive,keys,oneof=beginner casual serious,endkeys,gt=0"`
	ForecastFallbackPerDay int            `mapstructure:"forecast_fallback_per_day" validate:"gt=0"`
	ForecastDays           int            `mapstructure:"forecast_days" validate:"gt=0"`
	DefaultTimeZone        string         `mapstructure:"default_time_zone" validate:"required,timezone"`
}

// ReminderConfig controls the periodic due-review reminder job.
type ReminderConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes" validate:"required_if=Enabled true,gte=0"`
}

// EventsConfig sizes the background event delivery runner. Zero values
// fall back to the runner defaults.
type EventsConfig struct {
	Workers   int `mapstructure:"workers" validate:"gte=0"`
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`
}
