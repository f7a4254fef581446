// Package config provides webadmin configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIURL          string
	WebURL          string
	Token           string // WEBADMIN_TOKEN override, never persisted
	TokenStore      string // file | redis | memory
	TokenPath       string
	RedisURL        string
	Profile         string
	NotificationTTL time.Duration
	HTTPTimeout     time.Duration
	LogFile         string
	LogLevel        slog.Level
	DevAddr         string // listen address of the stand-in API
}

// Load reads a .env file from the working directory if present, then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	home, _ := os.UserHomeDir() //nolint:errcheck // empty home leaves relative defaults
	dataDir := filepath.Join(home, ".webadmin")

	cfg := &Config{
		APIURL:          strings.TrimRight(getEnv("WEBADMIN_API_URL", "http://localhost:8000"), "/"),
		WebURL:          getEnv("WEBADMIN_WEB_URL", ""),
		Token:           strings.TrimSpace(getEnv("WEBADMIN_TOKEN", "")),
		TokenStore:      strings.ToLower(getEnv("WEBADMIN_TOKEN_STORE", "file")),
		TokenPath:       getEnv("WEBADMIN_TOKEN_PATH", filepath.Join(dataDir, "token")),
		RedisURL:        getEnv("WEBADMIN_REDIS_URL", "redis://localhost:6379/0"),
		Profile:         getEnv("WEBADMIN_PROFILE", "default"),
		NotificationTTL: getEnvDuration("WEBADMIN_NOTIFICATION_TTL", 5*time.Second),
		HTTPTimeout:     getEnvDuration("WEBADMIN_HTTP_TIMEOUT", 30*time.Second),
		LogFile:         getEnv("WEBADMIN_LOG_FILE", filepath.Join(dataDir, "webadmin.log")),
		LogLevel:        getEnvLevel("WEBADMIN_LOG_LEVEL", slog.LevelInfo),
		DevAddr:         getEnv("WEBADMIN_DEV_ADDR", "127.0.0.1:8000"),
	}
	if cfg.WebURL == "" {
		cfg.WebURL = cfg.APIURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("WEBADMIN_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	switch c.TokenStore {
	case "file":
		if c.TokenPath == "" {
			return fmt.Errorf("WEBADMIN_TOKEN_PATH cannot be empty")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("WEBADMIN_REDIS_URL cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("WEBADMIN_TOKEN_STORE must be file, redis or memory, got %q", c.TokenStore)
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("WEBADMIN_NOTIFICATION_TTL must be > 0")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("WEBADMIN_HTTP_TIMEOUT must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return lvl
}
