package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultMasterSecret = "change-me-master-secret"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Database: postgres when DATABASE_URL is set, sqlite file at DATA_PATH otherwise
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DataPath    string `mapstructure:"DATA_PATH"`

	// Auth
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	APIMasterSecret string `mapstructure:"API_MASTER_SECRET"`
	AdminUsername   string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword   string `mapstructure:"ADMIN_PASSWORD"`

	// Redis backs the apply lock when REDIS_ADDR is set
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Shift-code wall-clock times are placed in this zone
	Timezone string `mapstructure:"TIMEZONE"`

	ShiftCodeCacheTTL time.Duration `mapstructure:"SHIFT_CODE_CACHE_TTL"`
	ApplyLockTTL      time.Duration `mapstructure:"APPLY_LOCK_TTL"`

	// Scheduling defaults used when a request leaves them out
	MaxWorkPerStaff  int     `mapstructure:"MAX_WORK_PER_STAFF"`
	WeekendOffRatio  float64 `mapstructure:"WEEKEND_OFF_RATIO"`
	MinWorkingPerDay int     `mapstructure:"MIN_WORKING_PER_DAY"`
}

// Load reads configuration from an optional config file and the environment
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATA_PATH", "roster.db")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("API_MASTER_SECRET", defaultMasterSecret)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("SHIFT_CODE_CACHE_TTL", 5*time.Minute)
	v.SetDefault("APPLY_LOCK_TTL", 2*time.Minute)

	v.SetDefault("MAX_WORK_PER_STAFF", 13)
	v.SetDefault("WEEKEND_OFF_RATIO", 0.5)
	v.SetDefault("MIN_WORKING_PER_DAY", 1)
}

func validate(config *Config) error {
	if config.IsProduction() {
		if config.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if config.APIMasterSecret == defaultMasterSecret {
			return fmt.Errorf("API_MASTER_SECRET must be set in production")
		}
	}

	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", config.Timezone, err)
	}

	if config.WeekendOffRatio < 0 || config.WeekendOffRatio > 1 {
		return fmt.Errorf("WEEKEND_OFF_RATIO must be between 0 and 1")
	}
	if config.MaxWorkPerStaff < 0 || config.MinWorkingPerDay < 0 {
		return fmt.Errorf("MAX_WORK_PER_STAFF and MIN_WORKING_PER_DAY must not be negative")
	}

	return nil
}

// Location returns the configured time zone, UTC when it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
