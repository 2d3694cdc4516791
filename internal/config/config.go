// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	API        APIConfig        `toml:"api"`
	Storage    StorageConfig    `toml:"storage"`
	Standalone StandaloneConfig `toml:"standalone"`
	Google     GoogleConfig     `toml:"google"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
	// BaseURL is the externally visible origin, used to build the OAuth
	// landing redirect (<origin>/auth-success).
	BaseURL string `toml:"base_url"`
}

// APIConfig holds the remote gold API configuration.
type APIConfig struct {
	// BaseURL of the remote pricing/assets/auth API.
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// StorageConfig holds the local fallback store configuration.
type StorageConfig struct {
	Path string `toml:"path"`
}

// StandaloneConfig enables the offline mode: local credentials and locally
// stored lots instead of the remote API.
type StandaloneConfig struct {
	Enabled bool `toml:"enabled"`
	// JWTSecret signs locally issued tokens.
	JWTSecret string `toml:"jwt_secret"`
}

// GoogleConfig holds the optional direct Google sign-in settings.
// Only used in standalone mode; in delegated mode Google login is a
// redirect to the remote API.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// New creates a Config from defaults, an optional TOML file named by
// GOLDTRACKER_CONFIG, and environment variable overrides, in that order.
func New() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("GOLDTRACKER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "localhost",
			Port:    "8080",
			BaseURL: "http://localhost:8080",
		},
		API: APIConfig{
			BaseURL: "http://localhost:3002",
			Timeout: "15s",
		},
		Storage: StorageConfig{
			Path: filepath.Join("data", "goldtracker.db"),
		},
		Standalone: StandaloneConfig{
			JWTSecret: "change-me-in-production-please",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnv() {
	setEnv(&c.Server.Host, "HOST")
	setEnv(&c.Server.Port, "PORT")
	setEnv(&c.Server.BaseURL, "BASE_URL")
	setEnv(&c.API.BaseURL, "GOLD_API_URL")
	setEnv(&c.Storage.Path, "STORE_PATH")
	setEnv(&c.Standalone.JWTSecret, "JWT_SECRET")
	setEnv(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setEnv(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setEnv(&c.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("STANDALONE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Standalone.Enabled = b
		}
	}
}

// Address returns the full address to bind the server to.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func setEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
