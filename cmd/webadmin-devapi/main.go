// webadmin-devapi serves an in-memory user-admin API for local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/naveenspark/webadmin/internal/config"
	"github.com/naveenspark/webadmin/internal/devapi"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	api := devapi.New(devapi.WithLogger(logger))

	email := os.Getenv("WEBADMIN_SEED_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("WEBADMIN_SEED_PASSWORD")
	if password == "" {
		password = "password"
	}
	admin, err := api.Seed("Admin", email, password)
	if err != nil {
		slog.Error("Failed to seed admin user", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeded admin user", "id", admin.ID, "email", admin.Email)

	srv := &http.Server{
		Addr:              cfg.DevAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}
