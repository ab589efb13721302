// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and verifies opaque bearer tokens with a sliding
// inactivity window.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
)

const (
	// DefaultTTL is the inactivity window after which a token expires.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultTokenLength is the number of random bytes per token.
	DefaultTokenLength = 32
	// MinTokenLength is the smallest accepted token length in bytes.
	MinTokenLength = 16
)

// ErrNotAuthenticated is returned by Verify for unknown or expired tokens.
var ErrNotAuthenticated = errors.New("not authenticated")

// Store persists session tokens. *repository.Repository implements it.
type Store interface {
	CreateToken(ctx context.Context, tokenHash string, userID int64, lastUsedAt time.Time) error
	GetToken(ctx context.Context, tokenHash string) (*models.Token, error)
	TouchToken(ctx context.Context, tokenHash string, lastUsedAt time.Time) error
	DeleteToken(ctx context.Context, tokenHash string) error
	DeleteUserTokens(ctx context.Context, userID int64) error
	DeleteTokensUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the token policy. Zero values fall back to the defaults.
type Config struct {
	TTL         time.Duration
	TokenLength int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager issues, verifies and revokes session tokens.
type Manager struct {
	store       Store
	ttl         time.Duration
	tokenLength int
	now         func() time.Time
}

// NewManager creates a session manager on top of store.
func NewManager(store Store, cfg Config, opts ...Option) (*Manager, error) {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", cfg.TTL)
	}
	if cfg.TokenLength < MinTokenLength {
		return nil, fmt.Errorf("session token length must be at least %d bytes, got %d", MinTokenLength, cfg.TokenLength)
	}

	m := &Manager{
		store:       store,
		ttl:         cfg.TTL,
		tokenLength: cfg.TokenLength,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the configured inactivity window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a new token for userID and returns its plaintext value.
// Only the hash is persisted.
func (m *Manager) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, m.tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := m.store.CreateToken(ctx, hashToken(token), userID, m.now()); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	return token, nil
}

// Verify resolves a token to its user and extends its window.
// Expired tokens are left in place for the sweeper.
func (m *Manager) Verify(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrNotAuthenticated
	}

	hash := hashToken(token)
	stored, err := m.store.GetToken(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotAuthenticated
		}
		return 0, fmt.Errorf("failed to load session token: %w", err)
	}

	now := m.now()
	if now.Sub(stored.LastUsed()) >= m.ttl {
		return 0, ErrNotAuthenticated
	}

	// A concurrent revoke or sweep may have removed the row since the lookup.
	if err := m.store.TouchToken(ctx, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotAuthenticated
		}
		return 0, fmt.Errorf("failed to refresh session token: %w", err)
	}

	return stored.UserID, nil
}

// Revoke deletes a single token. Unknown tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.DeleteToken(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}
	return nil
}

// RevokeAll deletes every token of a user.
func (m *Manager) RevokeAll(ctx context.Context, userID int64) error {
	if err := m.store.DeleteUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke session tokens: %w", err)
	}
	return nil
}

// Sweep removes all tokens that have been idle for at least the TTL.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	deleted, err := m.store.DeleteTokensUsedBefore(ctx, m.now().Add(-m.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep session tokens: %w", err)
	}
	return deleted, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
