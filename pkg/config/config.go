// Package config provides configuration loading for taskforge.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/taskforge/pkg/apperrors"
)

// Config holds the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig holds credential and token settings. The JWT secret is injected
// into the token service at construction; nothing reads it from ambient state.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/taskforge.db",
		},
		Auth: AuthConfig{
			TokenTTL:   7 * 24 * time.Hour,
			BcryptCost: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and TASKFORGE_* environment
// variables layered over the defaults. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	v.SetDefault("database.path", defaults.Database.Path)
	// Registered with an empty default so the env override is visible to
	// Unmarshal; Validate still insists a real value arrives.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", defaults.Auth.TokenTTL)
	v.SetDefault("auth.bcrypt_cost", defaults.Auth.BcryptCost)
	v.SetDefault("log.level", defaults.Log.Level)

	v.SetEnvPrefix("TASKFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.Wrap(apperrors.KindValidation, "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "failed to parse configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return apperrors.NewValidationError("server.addr is required")
	}

	if c.Database.Path == "" {
		return apperrors.NewValidationError("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return apperrors.NewValidationError("auth.jwt_secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return apperrors.NewValidationError("auth.token_ttl must be positive")
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return apperrors.NewValidationError("auth.bcrypt_cost is out of range")
	}

	return nil
}
