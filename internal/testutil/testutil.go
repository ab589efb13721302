// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/oliverandrich/go-accounts/internal/database"
	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Password is the plaintext password of users created by NewTestUser.
const Password = "P4ssword"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates an activated user with email <username>@mail.com and Password.
func NewTestUser(t *testing.T, repo *repository.Repository, username string) *models.User {
	t.Helper()
	user := NewInactiveTestUser(t, repo, username, "")

	_, err := repo.DB().ExecContext(context.Background(),
		`UPDATE users SET inactive = 0, activation_token = NULL WHERE id = ?`, user.ID)
	require.NoError(t, err)

	user.Inactive = false
	user.ActivationToken = nil
	return user
}

// NewInactiveTestUser creates a user that has not completed activation.
// activationTokenHash may be empty.
func NewInactiveTestUser(t *testing.T, repo *repository.Repository, username, activationTokenHash string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@mail.com",
		PasswordHash: string(hash),
	}
	if activationTokenHash != "" {
		user.ActivationToken = &activationTokenHash
	}

	err = repo.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return user
}

// CountUsers returns the number of rows in the users table.
func CountUsers(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM users`))
	return count
}

// CountTokens returns the number of rows in the tokens table.
func CountTokens(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM tokens`))
	return count
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
