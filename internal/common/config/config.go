// Package config provides configuration management for PasteKit.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for PasteKit.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Media   MediaConfig   `mapstructure:"media"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Logging LoggingConfig `mapstructure:"logging"`
	Pending PendingConfig `mapstructure:"pending"`
	Input   InputConfig   `mapstructure:"input"`
}

// ServerConfig holds HTTP server configuration for the demo media server
// and chat relay.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// MediaConfig holds media storage configuration for the reference upload
// service.
type MediaConfig struct {
	Dir     string `mapstructure:"dir"`     // directory for uploaded files
	DBPath  string `mapstructure:"dbPath"`  // sqlite metadata database
	BaseURL string `mapstructure:"baseUrl"` // public base URL for media links
}

// NATSConfig holds NATS messaging configuration. An empty URL selects the
// in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// PendingConfig holds the pending-image queue policy.
type PendingConfig struct {
	Capacity     int      `mapstructure:"capacity"`     // max queued images
	MaxBytes     int64    `mapstructure:"maxBytes"`     // per-image size ceiling
	AllowedTypes []string `mapstructure:"allowedTypes"` // image MIME whitelist
}

// InputConfig scopes paste/keyboard interception to the chat input.
type InputConfig struct {
	Region string `mapstructure:"region"` // event-region name of the chat input
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
// Returns "json" if running in Kubernetes or other production environments.
// Returns "text" for terminal/development use (human-readable console format).
func detectDefaultLogFormat() string {
	// Check if running in Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}

	// Check for explicit production environment
	if env := os.Getenv("PASTEKIT_ENV"); env == "production" || env == "prod" {
		return "json"
	}

	// Default to text format for terminal use (more readable than JSON)
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Media defaults
	v.SetDefault("media.dir", "./media")
	v.SetDefault("media.dbPath", "./media/media.db")
	v.SetDefault("media.baseUrl", "")

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "pastekit-client")
	v.SetDefault("nats.maxReconnects", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	// Pending queue defaults
	v.SetDefault("pending.capacity", 4)
	v.SetDefault("pending.maxBytes", int64(10*1024*1024))
	v.SetDefault("pending.allowedTypes", []string{
		"image/png", "image/jpeg", "image/gif", "image/webp",
	})

	// Input defaults
	v.SetDefault("input.region", "chat-input")
}

// Load reads configuration from default locations.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("PASTEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/pastekit/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if cfg.Pending.Capacity <= 0 {
		errs = append(errs, "pending.capacity must be positive")
	}
	if cfg.Pending.MaxBytes <= 0 {
		errs = append(errs, "pending.maxBytes must be positive")
	}
	if len(cfg.Pending.AllowedTypes) == 0 {
		errs = append(errs, "pending.allowedTypes must not be empty")
	}

	if cfg.Input.Region == "" {
		errs = append(errs, "input.region must be set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
