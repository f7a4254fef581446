package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"WEBADMIN_API_URL", "WEBADMIN_WEB_URL", "WEBADMIN_TOKEN", "WEBADMIN_TOKEN_STORE",
	"WEBADMIN_TOKEN_PATH", "WEBADMIN_REDIS_URL", "WEBADMIN_PROFILE", "WEBADMIN_NOTIFICATION_TTL",
	"WEBADMIN_HTTP_TIMEOUT", "WEBADMIN_LOG_FILE", "WEBADMIN_LOG_LEVEL", "WEBADMIN_DEV_ADDR",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k) //nolint:errcheck
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.WebURL != cfg.APIURL {
		t.Errorf("WebURL = %q, want APIURL", cfg.WebURL)
	}
	if cfg.TokenStore != "file" || !strings.HasSuffix(cfg.TokenPath, ".webadmin/token") {
		t.Errorf("token store = %q at %q", cfg.TokenStore, cfg.TokenPath)
	}
	if cfg.NotificationTTL != 5*time.Second || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("ttl=%v timeout=%v", cfg.NotificationTTL, cfg.HTTPTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.Profile != "default" {
		t.Errorf("level=%v profile=%q", cfg.LogLevel, cfg.Profile)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBADMIN_API_URL", "https://admin.example.com/")
	t.Setenv("WEBADMIN_WEB_URL", "https://app.example.com")
	t.Setenv("WEBADMIN_TOKEN", "  abc \n")
	t.Setenv("WEBADMIN_TOKEN_STORE", "Redis")
	t.Setenv("WEBADMIN_NOTIFICATION_TTL", "2")
	t.Setenv("WEBADMIN_HTTP_TIMEOUT", "1500ms")
	t.Setenv("WEBADMIN_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.APIURL != "https://admin.example.com" {
		t.Errorf("APIURL = %q, want trailing slash trimmed", cfg.APIURL)
	}
	if cfg.WebURL != "https://app.example.com" {
		t.Errorf("WebURL = %q", cfg.WebURL)
	}
	if cfg.Token != "abc" {
		t.Errorf("Token = %q, want trimmed", cfg.Token)
	}
	if cfg.TokenStore != "redis" {
		t.Errorf("TokenStore = %q", cfg.TokenStore)
	}
	if cfg.NotificationTTL != 2*time.Second {
		t.Errorf("NotificationTTL = %v", cfg.NotificationTTL)
	}
	if cfg.HTTPTimeout != 1500*time.Millisecond {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"WEBADMIN_API_URL", "localhost:8000"},
		{"WEBADMIN_API_URL", "ftp://host"},
		{"WEBADMIN_TOKEN_STORE", "s3"},
		{"WEBADMIN_TOKEN_PATH", ""},
		{"WEBADMIN_NOTIFICATION_TTL", "0s"},
		{"WEBADMIN_HTTP_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("FromEnv() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestGetEnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBADMIN_NOTIFICATION_TTL", "soon")
	t.Setenv("WEBADMIN_LOG_LEVEL", "loud")
	if got := getEnvDuration("WEBADMIN_NOTIFICATION_TTL", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration = %v, want fallback", got)
	}
	if got := getEnvLevel("WEBADMIN_LOG_LEVEL", slog.LevelWarn); got != slog.LevelWarn {
		t.Errorf("getEnvLevel = %v, want fallback", got)
	}
}
