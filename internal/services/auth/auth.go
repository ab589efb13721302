// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements sign-in, registration, activation, password reset
// and the user resource on top of the repository and session manager.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	authctx "codeberg.org/oliverandrich/go-accounts/internal/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/session"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Mailer delivers activation and password reset mails.
type Mailer interface {
	SendActivation(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// Sessions issues and verifies session tokens. *session.Manager implements it.
type Sessions interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Verify(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID int64) error
}

// Service implements sign-in, account lifecycle and the user resource.
type Service struct {
	repo       *repository.Repository
	sessions   Sessions
	mailer     Mailer
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost sets the cost used for new password hashes.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// NewService creates an account service with bcrypt.DefaultCost unless overridden.
func NewService(repo *repository.Repository, sessions Sessions, mailer Mailer, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		sessions:   sessions,
		mailer:     mailer,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is returned on successful sign-in.
type LoginResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Login checks the credentials and issues a new session token.
// Inactive accounts are rejected before the password result is reported.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		slog.Warn("login_failed", "reason", "missing_credentials")
		return nil, ErrAuthenticationFailed
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Inactive {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "inactive")
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "invalid_password")
		return nil, ErrAuthenticationFailed
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	slog.Info("login_success", "user_id", user.ID)
	return &LoginResult{ID: user.ID, Username: user.Username, Token: token}, nil
}

// Authenticate resolves a bearer token. Missing, unknown and expired tokens
// yield nil so the caller continues as anonymous.
func (s *Service) Authenticate(ctx context.Context, token string) *authctx.Identity {
	if token == "" {
		return nil
	}

	userID, err := s.sessions.Verify(ctx, token)
	if err != nil {
		if !errors.Is(err, session.ErrNotAuthenticated) {
			slog.Error("token_verify_failed", "error", err)
		}
		return nil
	}

	return &authctx.Identity{UserID: userID, Token: token}
}

// Logout revokes the token. It never fails from the caller's point of view.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		slog.Error("logout_failed", "error", err)
		return
	}
	slog.Info("logout_success")
}
