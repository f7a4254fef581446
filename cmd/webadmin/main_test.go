package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/webadmin/internal/config"
	"github.com/naveenspark/webadmin/internal/devapi"
)

// testEnv is a wired app talking to an in-memory API.
type testEnv struct {
	app *app
	api *devapi.Server
	srv *httptest.Server
	cfg *config.Config
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	t.Setenv("WEBADMIN_EMAIL", "")
	t.Setenv("WEBADMIN_PASSWORD", "")

	api := devapi.New(
		devapi.WithHashCost(bcrypt.MinCost),
		devapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if _, err := api.Seed("Alice", "alice@example.com", "password"); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		APIURL:          srv.URL,
		WebURL:          srv.URL,
		Token:           token,
		TokenStore:      "file",
		TokenPath:       filepath.Join(dir, "token"),
		Profile:         "default",
		NotificationTTL: time.Second,
		HTTPTimeout:     5 * time.Second,
		LogFile:         filepath.Join(dir, "logs", "webadmin.log"),
		LogLevel:        slog.LevelDebug,
	}
	a, err := wire(cfg)
	if err != nil {
		t.Fatalf("wire() error: %v", err)
	}
	t.Cleanup(a.close)
	return &testEnv{app: a, api: api, srv: srv, cfg: cfg}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	var out bytes.Buffer
	if err := e.app.runLogin([]string{"-email", "alice@example.com", "-password", "password"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runLogin() error: %v", err)
	}
}

func savedToken(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(b))
}

func TestRunLogin(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		input   string
		wantErr string
		wantOut string
	}{
		{
			name:    "flags",
			args:    []string{"-email", "alice@example.com", "-password", "password"},
			wantOut: "Logged in as Alice <alice@example.com>",
		},
		{
			name:    "prompts",
			input:   "alice@example.com\npassword\n",
			wantOut: "Logged in as Alice <alice@example.com>",
		},
		{
			name:    "invalid email",
			args:    []string{"-email", "nope", "-password", "password"},
			wantErr: "email",
		},
		{
			name:    "missing password",
			args:    []string{"-email", "alice@example.com"},
			input:   "\n",
			wantErr: "password",
		},
		{
			name:    "wrong password",
			args:    []string{"-email", "alice@example.com", "-password", "wrong"},
			wantErr: "login: Provided email address or password is incorrect",
		},
		{
			name:    "unknown flag",
			args:    []string{"-user", "alice"},
			wantErr: "flag provided but not defined",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			var out bytes.Buffer
			err := env.app.runLogin(tt.args, strings.NewReader(tt.input), &out)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("runLogin() error = %v, want containing %q", err, tt.wantErr)
				}
				if env.app.store.Authenticated() || savedToken(t, env.cfg.TokenPath) != "" {
					t.Error("failed login left a session behind")
				}
				return
			}
			if err != nil {
				t.Fatalf("runLogin() error: %v", err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
			if strings.Contains(out.String(), "Warning") {
				t.Errorf("unexpected warning: %q", out.String())
			}
			tok := env.app.store.Token()
			if tok == "" || savedToken(t, env.cfg.TokenPath) != tok {
				t.Errorf("token not persisted: store %q, file %q", tok, savedToken(t, env.cfg.TokenPath))
			}
		})
	}
}

func TestWireTokenOverride(t *testing.T) {
	env := newTestEnv(t, "override-token")
	if got := env.app.store.Token(); got != "override-token" {
		t.Fatalf("Token() = %q, want override-token", got)
	}
	if env.app.tokens.Degraded() {
		t.Error("memory store reported degraded")
	}

	var out bytes.Buffer
	if err := env.app.runLogin([]string{"-email", "alice@example.com", "-password", "password"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runLogin() error: %v", err)
	}
	if !strings.Contains(out.String(), "WEBADMIN_TOKEN is set") {
		t.Errorf("expected an override warning, got %q", out.String())
	}
	if got := savedToken(t, env.cfg.TokenPath); got != "" {
		t.Errorf("token file written under override: %q", got)
	}
}

func TestRunLogout(t *testing.T) {
	tests := []struct {
		name       string
		login      bool
		serverDown bool
		wantOut    string
	}{
		{"logged in", true, false, "Logged out."},
		{"not logged in", false, false, "Already logged out."},
		{"server unreachable", true, true, "Server logout failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			if tt.login {
				env.login(t)
			}
			if tt.serverDown {
				env.srv.Close()
			}

			var out bytes.Buffer
			if err := env.app.runLogout(&out); err != nil {
				t.Fatalf("runLogout() error: %v", err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
			if env.app.store.Authenticated() {
				t.Error("still authenticated after logout")
			}
			if got := savedToken(t, env.cfg.TokenPath); got != "" {
				t.Errorf("token file still holds %q", got)
			}
		})
	}
}

func TestRunWhoami(t *testing.T) {
	tests := []struct {
		name     string
		login    bool
		revoke   bool
		wantOut  string
		wantAuth bool
	}{
		{"logged in", true, false, "Alice <alice@example.com> (id 1)", true},
		{"not logged in", false, false, "Not logged in.", false},
		{"token revoked", true, true, "Session expired.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			if tt.login {
				env.login(t)
			}
			if tt.revoke {
				env.api.RevokeAll()
			}

			var out bytes.Buffer
			if err := env.app.runWhoami(&out); err != nil {
				t.Fatalf("runWhoami() error: %v", err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
			if env.app.store.Authenticated() != tt.wantAuth {
				t.Errorf("Authenticated() = %v, want %v", env.app.store.Authenticated(), tt.wantAuth)
			}
		})
	}
}

func TestRunWhoamiTransportError(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)
	env.srv.Close()

	var out bytes.Buffer
	if err := env.app.runWhoami(&out); err == nil {
		t.Fatal("expected an error with the server down")
	}
	if !env.app.store.Authenticated() {
		t.Error("transport failure should keep the session")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("WEBADMIN_TOKEN_STORE", "memory")
	t.Setenv("WEBADMIN_LOG_FILE", filepath.Join(t.TempDir(), "webadmin.log"))
	if err := run([]string{"frobnicate"}); err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("run() error = %v, want unknown command", err)
	}
}
