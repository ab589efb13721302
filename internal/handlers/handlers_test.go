// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/go-accounts/internal/handlers"
	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"codeberg.org/oliverandrich/go-accounts/internal/middleware"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/services/session"
	"codeberg.org/oliverandrich/go-accounts/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendActivation(ctx context.Context, to, token string) error {
	args := m.Called(ctx, to, token)
	return args.Error(0)
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	args := m.Called(ctx, to, token)
	return args.Error(0)
}

type testApp struct {
	e        *echo.Echo
	repo     *repository.Repository
	accounts *auth.Service
	mailer   *mockMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	require.NoError(t, i18n.Init())

	_, repo := testutil.NewTestDB(t)
	sessions, err := session.NewManager(repo, session.Config{})
	require.NoError(t, err)

	mailer := new(mockMailer)
	t.Cleanup(func() { mailer.AssertExpectations(t) })

	accounts := auth.NewService(repo, sessions, mailer, auth.WithBcryptCost(bcrypt.MinCost))

	e := echo.New()
	e.HTTPErrorHandler = handlers.ErrorHandler
	e.Use(middleware.Locale())
	e.Use(middleware.TokenAuth(accounts))
	handlers.New(repo, accounts).Routes(e)

	return &testApp{e: e, repo: repo, accounts: accounts, mailer: mailer}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
}

func withLanguage(lang string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Accept-Language", lang)
	}
}

func (a *testApp) do(method, path, body string, opts ...requestOption) *httptest.ResponseRecorder {
	req := testutil.NewRequest(method, path, strings.NewReader(body))
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// login signs in a user created by testutil and returns its token.
func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	result, err := a.accounts.Login(context.Background(), email, testutil.Password)
	require.NoError(t, err)
	return result.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/1.0/nothing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "/api/1.0/nothing", resp.Path)
	assert.Equal(t, "Not found", resp.Message)
}
