// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"github.com/vinovest/sqlx"
)

const userColumns = `id, username, email, password_hash, inactive, activation_token,
	password_reset_token, created_at, updated_at`

// CreateUser inserts a new user and sets its ID and timestamps.
// New accounts always start inactive.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.Inactive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, inactive, activation_token, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.ActivationToken, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id

	return nil
}

func (r *Repository) getUser(ctx context.Context, where string, args ...any) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user, `SELECT `+userColumns+` FROM users WHERE `+where, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID regardless of its activation state.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

// GetActiveUserByID retrieves an activated user by ID.
func (r *Repository) GetActiveUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, `id = ? AND inactive = 0`, id)
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

// GetUserByActivationToken retrieves the user holding the given activation token hash.
func (r *Repository) GetUserByActivationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.getUser(ctx, `activation_token = ?`, tokenHash)
}

// GetUserByPasswordResetToken retrieves the user holding the given reset token hash.
func (r *Repository) GetUserByPasswordResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.getUser(ctx, `password_reset_token = ?`, tokenHash)
}

// EmailExists checks if an account uses the given email address.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
	return exists, err
}

// ActivateUser consumes an activation token. The update only matches while
// the token is still set, so two concurrent activations cannot both succeed.
func (r *Repository) ActivateUser(ctx context.Context, tokenHash string) (*models.User, error) {
	user, err := r.GetUserByActivationToken(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET inactive = 0, activation_token = NULL, updated_at = ?
		 WHERE id = ? AND activation_token = ?`,
		time.Now().UTC(), user.ID, tokenHash)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}

	user.Inactive = false
	user.ActivationToken = nil
	return user, nil
}

// SetPasswordResetToken stores a reset token hash on the user.
func (r *Repository) SetPasswordResetToken(ctx context.Context, userID int64, tokenHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_reset_token = ?, updated_at = ? WHERE id = ?`,
		tokenHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ResetPassword replaces the password hash and consumes the reset token.
// Returns ErrNotFound when no user holds the token anymore.
func (r *Repository) ResetPassword(ctx context.Context, tokenHash, passwordHash string) (*models.User, error) {
	user, err := r.GetUserByPasswordResetToken(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, password_reset_token = NULL, updated_at = ?
		 WHERE id = ? AND password_reset_token = ?`,
		passwordHash, time.Now().UTC(), user.ID, tokenHash)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash
	user.PasswordResetToken = nil
	return user, nil
}

// UpdateUsername changes the username of a user.
func (r *Repository) UpdateUsername(ctx context.Context, id int64, username string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, updated_at = ? WHERE id = ?`,
		username, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteUser deletes a user by ID. Its tokens are removed by the foreign key cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// ListActiveUsers returns a page of activated users ordered by ID, skipping excludeID.
func (r *Repository) ListActiveUsers(ctx context.Context, limit, offset int, excludeID int64) ([]models.PublicUser, error) {
	users := []models.PublicUser{}
	err := sqlx.SelectContext(ctx, r.db, &users,
		`SELECT id, username, email FROM users
		 WHERE inactive = 0 AND id <> ?
		 ORDER BY id LIMIT ? OFFSET ?`,
		excludeID, limit, offset)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountActiveUsers returns the number of activated users, skipping excludeID.
func (r *Repository) CountActiveUsers(ctx context.Context, excludeID int64) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, r.db, &count,
		`SELECT COUNT(*) FROM users WHERE inactive = 0 AND id <> ?`, excludeID)
	return count, err
}
