package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Session  SessionConfig  `yaml:"session"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	HTTPPort   int    `yaml:"http_port"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication settings for the web API
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// GatewayConfig holds the chat gateway settings
type GatewayConfig struct {
	URL           string         `yaml:"url"`
	SubjectPrefix string         `yaml:"subject_prefix"`
	CommandPrefix string         `yaml:"command_prefix"`
	Debug         bool           `yaml:"debug"`
	Admins        []string       `yaml:"admins"`
	Embedded      EmbeddedConfig `yaml:"embedded"`
}

// EmbeddedConfig controls the in-process gateway broker
type EmbeddedConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SessionConfig holds session recording settings
type SessionConfig struct {
	MinimumSeconds int64 `yaml:"minimum_seconds"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Set defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = "127.0.0.1"
	}
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/var/lib/oblivionis/oblivionis.db"
	}

	// Auth defaults
	if cfg.Auth.TokenDuration == 0 {
		cfg.Auth.TokenDuration = 24 * time.Hour
	}

	// Gateway defaults
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Gateway.SubjectPrefix == "" {
		cfg.Gateway.SubjectPrefix = "oblivionis"
	}
	if cfg.Gateway.CommandPrefix == "" {
		cfg.Gateway.CommandPrefix = "!"
	}
	if cfg.Gateway.Embedded.Port == 0 {
		cfg.Gateway.Embedded.Port = 4222
	}

	// Session defaults
	if cfg.Session.MinimumSeconds == 0 {
		cfg.Session.MinimumSeconds = 60
	}

	return &cfg, nil
}
