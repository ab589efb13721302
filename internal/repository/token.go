// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"github.com/vinovest/sqlx"
)

// CreateToken stores a session token hash for a user.
func (r *Repository) CreateToken(ctx context.Context, tokenHash string, userID int64, lastUsedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (token_hash, user_id, last_used_at) VALUES (?, ?, ?)`,
		tokenHash, userID, lastUsedAt.UnixMilli())
	return err
}

// GetToken retrieves a session token by hash.
func (r *Repository) GetToken(ctx context.Context, tokenHash string) (*models.Token, error) {
	var token models.Token
	err := sqlx.GetContext(ctx, r.db, &token,
		`SELECT token_hash, user_id, last_used_at FROM tokens WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// TouchToken moves the last use of a token forward.
// Returns ErrNotFound if the token was deleted in the meantime.
func (r *Repository) TouchToken(ctx context.Context, tokenHash string, lastUsedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET last_used_at = ? WHERE token_hash = ?`,
		lastUsedAt.UnixMilli(), tokenHash)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteToken deletes a single token. Deleting an unknown token is not an error.
func (r *Repository) DeleteToken(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE token_hash = ?`, tokenHash)
	return err
}

// DeleteUserTokens deletes all tokens of a user.
func (r *Repository) DeleteUserTokens(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	return err
}

// DeleteTokensUsedBefore deletes tokens whose last use is at or before cutoff
// and returns how many were removed.
func (r *Repository) DeleteTokensUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE last_used_at <= ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
