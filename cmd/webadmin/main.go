package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/naveenspark/webadmin/internal/browser"
	"github.com/naveenspark/webadmin/internal/config"
	"github.com/naveenspark/webadmin/internal/session"
	"github.com/naveenspark/webadmin/internal/tokenstore"
	"github.com/naveenspark/webadmin/internal/tui"
	"github.com/naveenspark/webadmin/pkg/client"
	"github.com/naveenspark/webadmin/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the wired session layer shared by the TUI and the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tokens   *tokenstore.Persisted
	store    *session.Store
	notifier *session.Notifier
	client   *client.Client
	guard    *session.Guard
	closeLog func()
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("webadmin " + version)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := wire(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) > 0 {
		switch args[0] {
		case "login":
			return a.runLogin(args[1:], os.Stdin, os.Stdout)
		case "logout":
			return a.runLogout(os.Stdout)
		case "whoami":
			return a.runWhoami(os.Stdout)
		case "web":
			return a.runWeb(os.Stdout)
		default:
			printHelp(os.Stderr)
			return fmt.Errorf("unknown command %q", args[0])
		}
	}
	return a.runTUI()
}

// wire builds the session layer from cfg. WEBADMIN_TOKEN seeds an in-memory
// store so the override never touches the persisted token.
func wire(cfg *config.Config) (*app, error) {
	logger, closeLog := openLogger(cfg)

	var tokens *tokenstore.Persisted
	if cfg.Token != "" {
		tokens = tokenstore.NewMemory()
		tokens.Set(cfg.Token)
	} else {
		var err error
		tokens, err = tokenstore.Open(tokenstore.Options{
			Kind:     cfg.TokenStore,
			Path:     cfg.TokenPath,
			RedisURL: cfg.RedisURL,
			Profile:  cfg.Profile,
		}, logger)
		if err != nil {
			closeLog()
			return nil, err
		}
	}

	store := session.NewStore(tokens)
	notifier := session.NewNotifier(store, cfg.NotificationTTL)
	c := client.New(cfg.APIURL,
		client.WithTokenSource(client.TokenFunc(store.Token)),
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(logger),
	)
	guard := session.NewGuard(store, notifier, nil, logger)
	guard.Attach(c)

	return &app{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		store:    store,
		notifier: notifier,
		client:   c,
		guard:    guard,
		closeLog: closeLog,
	}, nil
}

func (a *app) close() {
	if err := a.tokens.Close(); err != nil {
		a.logger.Warn("close token store", "error", err)
	}
	a.closeLog()
}

// openLogger writes JSON logs to the configured file. The terminal belongs to
// the TUI, so a log file that cannot be opened discards logs instead.
func openLogger(cfg *config.Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err == nil {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			logger := slog.New(slog.NewJSONHandler(f, opts)).With("version", version)
			return logger, func() { f.Close() } //nolint:errcheck
		}
	}
	return slog.New(slog.NewJSONHandler(io.Discard, opts)), func() {}
}

func (a *app) runTUI() error {
	model := tui.NewApp(tui.Deps{
		API:      a.client,
		Store:    a.store,
		Notifier: a.notifier,
		Guard:    a.guard,
		Version:  version,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	unbind := tui.Bind(p, a.store, a.guard)
	defer unbind()

	a.logger.Info("tui started", "api_url", a.cfg.APIURL, "authenticated", a.store.Authenticated())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func (a *app) runLogin(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", os.Getenv("WEBADMIN_EMAIL"), "account email")
	password := fs.String("password", os.Getenv("WEBADMIN_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := bufio.NewReader(in)
	if *email == "" {
		v, err := prompt(r, out, "Email: ")
		if err != nil {
			return err
		}
		*email = v
	}
	if *password == "" {
		v, err := promptPassword(in, r, out, "Password: ")
		if err != nil {
			return err
		}
		*password = v
	}

	creds := domain.Credentials{Email: strings.TrimSpace(*email), Password: *password}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	resp, err := a.client.Login(context.Background(), creds)
	if err != nil {
		if verr, ok := client.AsValidation(err); ok {
			return fmt.Errorf("login: %s", verr.Message)
		}
		return fmt.Errorf("login: %w", err)
	}
	a.store.Establish(*resp)
	switch {
	case a.cfg.Token != "":
		fmt.Fprintln(out, "Warning: WEBADMIN_TOKEN is set; this login lasts for this process only.")
	case a.tokens.Degraded():
		fmt.Fprintln(out, "Warning: token could not be saved; this login lasts for this process only.")
	}
	fmt.Fprintf(out, "Logged in as %s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func (a *app) runLogout(out io.Writer) error {
	if !a.store.Authenticated() {
		fmt.Fprintln(out, "Already logged out.")
		return nil
	}
	if err := a.guard.Logout(context.Background(), a.client); err != nil {
		fmt.Fprintf(out, "Server logout failed (%v); local session cleared.\n", err)
		return nil
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func (a *app) runWhoami(out io.Writer) error {
	if !a.store.Authenticated() {
		fmt.Fprintln(out, "Not logged in. Run: webadmin login")
		return nil
	}
	if err := session.Bootstrap(context.Background(), a.store, a.client); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(out, "Session expired. Run: webadmin login")
			return nil
		}
		return err
	}
	u := a.store.User()
	fmt.Fprintf(out, "%s <%s> (id %d)\n", u.Name, u.Email, u.ID)
	return nil
}

func (a *app) runWeb(out io.Writer) error {
	if err := browser.Open(a.cfg.WebURL); err != nil {
		fmt.Fprintln(out, a.cfg.WebURL)
	}
	return nil
}

func prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when in is a terminal.
func promptPassword(in io.Reader, r *bufio.Reader, out io.Writer, label string) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return prompt(r, out, label)
	}
	fd := f.Fd()
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
