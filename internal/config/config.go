// Package config loads application configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment variables, e.g.
// BOOKHIVE_DATABASE__URL overrides database.url. A double underscore
// separates nesting levels so snake_case keys survive the mapping.
const envPrefix = "BOOKHIVE_"

// Config represents the application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	CORS          CORSConfig          `koanf:"cors"`
	Booking       BookingConfig       `koanf:"booking"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"min=1"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// BookingConfig holds booking-facing settings.
type BookingConfig struct {
	// BaseURL is the public booking site origin used to build the
	// reschedule and cancel links embedded in customer emails.
	BaseURL string `koanf:"base_url" validate:"required,url"`
}

// NotificationsConfig holds notification pipeline settings.
type NotificationsConfig struct {
	Enabled   bool            `koanf:"enabled"`
	Email     EmailConfig     `koanf:"email"`
	WhatsApp  WhatsAppConfig  `koanf:"whatsapp"`
	Processor ProcessorConfig `koanf:"processor"`
	Cleanup   CleanupConfig   `koanf:"cleanup"`
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	FromAddress  string `koanf:"from_address"`
}

// WhatsAppConfig holds WhatsApp Business Cloud API settings.
type WhatsAppConfig struct {
	Enabled       bool    `koanf:"enabled"`
	APIURL        string  `koanf:"api_url"`
	PhoneNumberID string  `koanf:"phone_number_id"`
	AccessToken   string  `koanf:"access_token"`
	RateLimit     float64 `koanf:"rate_limit" validate:"min=0"`
}

// ProcessorConfig holds background queue processor settings.
type ProcessorConfig struct {
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=1s"`
	BatchSize    int           `koanf:"batch_size" validate:"min=1,max=100"`
}

// CleanupConfig holds queue retention settings.
type CleanupConfig struct {
	Interval      time.Duration `koanf:"interval" validate:"min=1m"`
	RetentionDays int           `koanf:"retention_days" validate:"min=1"`
}

// defaultConfig returns the baseline configuration; file and environment
// values overlay it key by key.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Booking: BookingConfig{
			BaseURL: "http://localhost:3000",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Email: EmailConfig{
				SMTPPort: 587,
			},
			WhatsApp: WhatsAppConfig{
				RateLimit: 10,
			},
			Processor: ProcessorConfig{
				PollInterval: time.Minute,
				BatchSize:    20,
			},
			Cleanup: CleanupConfig{
				Interval:      24 * time.Hour,
				RetentionDays: 15,
			},
		},
	}
}

// Load reads configuration from an optional YAML file and the
// environment, in that order of precedence (env wins). Missing keys
// keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
