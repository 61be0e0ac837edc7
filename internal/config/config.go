// Package config loads the process configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unlimited-chat/chatbilling/internal/util"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name used when no path is given.
const DefaultConfigFile = "config.yaml"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"` // Listen host. Empty binds all interfaces.
	Port int    `yaml:"port"` // Listen port.
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path or PostgreSQL DSN.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`       // HS256 signing secret.
	ExpiryHours int    `yaml:"expiry-hours"` // Token lifetime in hours.
}

// RedisConfig holds redis settings for the redemption rate limiter.
// An empty address disables redis-backed features.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port; empty disables redis.
	Password string `yaml:"password"` // Optional password.
	DB       int    `yaml:"db"`       // Database index.
}

// LogConfig holds logging settings.
type LogConfig struct {
	File       string `yaml:"file"`        // Rotating log file path; empty logs to stdout only.
	Level      string `yaml:"level"`       // logrus level name.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotation size in megabytes.
	MaxBackups int    `yaml:"max-backups"` // Rotated files kept.
	MaxAgeDays int    `yaml:"max-age"`     // Rotated file retention in days.
}

// AppConfig is the full process configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// defaults returns the configuration used when fields are omitted.
func defaults() AppConfig {
	return AppConfig{
		Server:   ServerConfig{Host: "", Port: 8317},
		Database: DatabaseConfig{DSN: "data/chatbilling.db"},
		JWT:      JWTConfig{ExpiryHours: 72},
		Log:      LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// ResolveConfigPath resolves the effective config file path, preferring
// an explicit path, then WRITABLE_PATH, then the working directory.
func ResolveConfigPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		return filepath.Clean(trimmed)
	}
	if writable := util.WritablePath(); writable != "" {
		return filepath.Join(writable, DefaultConfigFile)
	}
	return DefaultConfigFile
}

// Load reads and decodes the config file. A missing file yields the
// defaults so a bare SQLite deployment needs no config at all.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()

	data, errRead := os.ReadFile(path)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errDecode := yaml.Unmarshal(data, &cfg); errDecode != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, errDecode)
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8317
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = "data/chatbilling.db"
	}
	if cfg.JWT.ExpiryHours <= 0 {
		cfg.JWT.ExpiryHours = 72
	}
	return &cfg, nil
}
