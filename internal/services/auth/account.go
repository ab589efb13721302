// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/email"
	"golang.org/x/crypto/bcrypt"
)

// RegisterParams holds the parameters for user registration.
// They are expected to be validated already.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// Register creates an inactive account and sends the activation mail.
// The account only persists if the mail was sent.
func (s *Service) Register(ctx context.Context, params RegisterParams) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	token, tokenHash, err := email.GenerateToken()
	if err != nil {
		return err
	}

	user := &models.User{
		Username:        params.Username,
		Email:           params.Email,
		PasswordHash:    string(passwordHash),
		ActivationToken: &tokenHash,
	}

	err = s.commitAfterSend(ctx,
		func(ctx context.Context, tx *repository.Tx) error {
			if err := tx.CreateUser(ctx, user); err != nil {
				if errors.Is(err, repository.ErrDuplicateEmail) {
					return &ValidationError{Fields: map[string]string{"email": "email_in_use"}}
				}
				return fmt.Errorf("failed to create user: %w", err)
			}
			return nil
		},
		func(ctx context.Context) error {
			return s.mailer.SendActivation(ctx, user.Email, token)
		},
	)
	if err != nil {
		slog.Warn("register_failed", "email", params.Email, "error", err)
		return err
	}

	slog.Info("register_success", "user_id", user.ID, "email", params.Email)
	return nil
}

// Activate consumes an activation token. Unknown and already used tokens
// fail the same way.
func (s *Service) Activate(ctx context.Context, token string) error {
	if token == "" {
		return ErrActivationFailed
	}

	user, err := s.repo.ActivateUser(ctx, email.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("activation_failed", "reason", "invalid_token")
			return ErrActivationFailed
		}
		return fmt.Errorf("failed to activate user: %w", err)
	}

	slog.Info("activation_success", "user_id", user.ID)
	return nil
}

// RequestPasswordReset stores a reset token and mails it. Only the token
// assignment is undone when the mail cannot be sent.
func (s *Service) RequestPasswordReset(ctx context.Context, address string) error {
	user, err := s.repo.GetUserByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("password_reset_request_failed", "email", address, "reason", "unknown_email")
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, tokenHash, err := email.GenerateToken()
	if err != nil {
		return err
	}

	err = s.commitAfterSend(ctx,
		func(ctx context.Context, tx *repository.Tx) error {
			if err := tx.SetPasswordResetToken(ctx, user.ID, tokenHash); err != nil {
				return fmt.Errorf("failed to store reset token: %w", err)
			}
			return nil
		},
		func(ctx context.Context) error {
			return s.mailer.SendPasswordReset(ctx, user.Email, token)
		},
	)
	if err != nil {
		slog.Warn("password_reset_request_failed", "user_id", user.ID, "error", err)
		return err
	}

	slog.Info("password_reset_requested", "user_id", user.ID)
	return nil
}

// CheckPasswordResetToken reports whether an account holds the reset token.
func (s *Service) CheckPasswordResetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorizedReset
	}

	_, err := s.repo.GetUserByPasswordResetToken(ctx, email.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorizedReset
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}

// ResetPassword sets a new password and consumes the reset token.
// All sessions of the account are revoked.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrUnauthorizedReset
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.ResetPassword(ctx, email.HashToken(token), string(passwordHash))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("password_reset_failed", "reason", "invalid_token")
			return ErrUnauthorizedReset
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	// The password is already changed; a failed revoke leaves old sessions to expire.
	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		slog.Error("session_revoke_failed", "user_id", user.ID, "error", err)
	}

	slog.Info("password_reset_success", "user_id", user.ID)
	return nil
}

// commitAfterSend applies a change in a transaction, then sends a mail.
// The transaction commits only when the mail went out and is rolled back
// on every other path. The transaction ignores cancellation of ctx, the
// send does not.
func (s *Service) commitAfterSend(
	ctx context.Context,
	apply func(ctx context.Context, tx *repository.Tx) error,
	send func(ctx context.Context) error,
) (err error) {
	txCtx := context.WithoutCancel(ctx)

	tx, err := s.repo.Begin(txCtx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("rollback_failed", "error", rbErr, "cause", err)
		}
	}()

	if err = apply(txCtx, tx); err != nil {
		return err
	}

	if sendErr := send(ctx); sendErr != nil {
		return emailDeliveryFailed(sendErr)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
