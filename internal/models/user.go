// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// User is an account. Activation and reset tokens are stored as SHA-256
// digests and are only set while the matching transition is pending.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID                 int64     `db:"id" json:"id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	Inactive           bool      `db:"inactive" json:"-"`
	ActivationToken    *string   `db:"activation_token" json:"-"`
	PasswordResetToken *string   `db:"password_reset_token" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// PublicUser is the representation of a user exposed to other users.
type PublicUser struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
