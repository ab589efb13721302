// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/database"
	"codeberg.org/oliverandrich/go-accounts/internal/handlers"
	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/services/email"
	"codeberg.org/oliverandrich/go-accounts/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

const shutdownTimeout = 10 * time.Second

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"client_url", cfg.Client.URL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB(db)

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	sessions, err := session.NewManager(repo, session.Config{
		TTL:         cfg.Session.TTL,
		TokenLength: cfg.Session.TokenLength,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	if !cfg.SMTP.TLS && !config.IsLocalhost(cfg.SMTP.Host) {
		slog.Warn("smtp_tls_disabled", "host", cfg.SMTP.Host)
	}
	mailer, err := email.NewService(&cfg.SMTP, cfg.Client.URL)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	accounts := auth.NewService(repo, sessions, mailer)

	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	e := newEcho(cfg, repo, accounts)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// Sweep removes expired session tokens once and exits.
func Sweep(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB(db)

	sessions, err := session.NewManager(repository.New(db), session.Config{
		TTL:         cfg.Session.TTL,
		TokenLength: cfg.Session.TokenLength,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	deleted, err := sessions.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep tokens: %w", err)
	}
	slog.Info("token_sweep", "deleted", deleted)
	return nil
}

func closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}

// newEcho builds the HTTP stack: error handler, middleware and routes.
func newEcho(cfg *config.Config, repo *repository.Repository, accounts *auth.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg, accounts)
	handlers.New(repo, accounts).Routes(e)

	return e
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal, cancellation or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
