// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Token is a persisted session token. Only the hash of the bearer value is stored.
type Token struct {
	TokenHash  string `db:"token_hash" json:"-"`
	UserID     int64  `db:"user_id" json:"user_id"`
	LastUsedAt int64  `db:"last_used_at" json:"last_used_at"` // unix milliseconds
}

// LastUsed returns the last successful use of the token.
func (t *Token) LastUsed() time.Time {
	return time.UnixMilli(t.LastUsedAt)
}
