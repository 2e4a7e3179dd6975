// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret  string `mapstructure:"JWT_SECRET"`
	Port       string `mapstructure:"PORT"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	RedisURL   string `mapstructure:"REDIS_URL"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// Governance knobs.
	RestoreOnEditReject  bool   `mapstructure:"RESTORE_ON_EDIT_REJECT"`
	EscalationWindowDays int    `mapstructure:"ESCALATION_WINDOW_DAYS"`
	WatchlistThreshold   int    `mapstructure:"WATCHLIST_THRESHOLD"`
	RetentionDays        int    `mapstructure:"RETENTION_DAYS"`
	ExpirySweepSpec      string `mapstructure:"EXPIRY_SWEEP_SPEC"`
	RetentionSweepSpec   string `mapstructure:"RETENTION_SWEEP_SPEC"`

	// Admission gate limits for abusable actions.
	AppealLimit         int `mapstructure:"APPEAL_LIMIT"`
	AppealWindowSeconds int `mapstructure:"APPEAL_WINDOW_SECONDS"`
	ExportLimit         int `mapstructure:"EXPORT_LIMIT"`
	ExportWindowSeconds int `mapstructure:"EXPORT_WINDOW_SECONDS"`
}

// AppealWindow returns the appeal admission window as a duration.
func (c *Config) AppealWindow() time.Duration {
	return time.Duration(c.AppealWindowSeconds) * time.Second
}

// ExportWindow returns the audit-export admission window as a duration.
func (c *Config) ExportWindow() time.Duration {
	return time.Duration(c.ExportWindowSeconds) * time.Second
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() *Config {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Println("Config file not found; using environment variables and defaults")
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "civica")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")

	viper.SetDefault("RESTORE_ON_EDIT_REJECT", true)
	viper.SetDefault("ESCALATION_WINDOW_DAYS", 30)
	viper.SetDefault("WATCHLIST_THRESHOLD", 2)
	viper.SetDefault("RETENTION_DAYS", 365)
	viper.SetDefault("EXPIRY_SWEEP_SPEC", "@every 10m")
	viper.SetDefault("RETENTION_SWEEP_SPEC", "@daily")

	viper.SetDefault("APPEAL_LIMIT", 5)
	viper.SetDefault("APPEAL_WINDOW_SECONDS", 3600)
	viper.SetDefault("EXPORT_LIMIT", 3)
	viper.SetDefault("EXPORT_WINDOW_SECONDS", 3600)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode config into struct, %v", err)
	}

	return &config
}
