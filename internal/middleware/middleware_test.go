// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/oliverandrich/go-accounts/internal/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"codeberg.org/oliverandrich/go-accounts/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	valid map[string]int64
	calls int
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) *auth.Identity {
	s.calls++
	if id, ok := s.valid[token]; ok {
		return &auth.Identity{UserID: id, Token: token}
	}
	return nil
}

func serve(t *testing.T, mw echo.MiddlewareFunc, req *http.Request, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, mw(handler)(c))
	return rec
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer ", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"abc123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			assert.Equal(t, tt.expected, middleware.BearerToken(req))
		})
	}
}

func TestTokenAuth_ValidToken(t *testing.T) {
	stub := &stubAuthenticator{valid: map[string]int64{"good": 42}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")

	var identity *auth.Identity
	serve(t, middleware.TokenAuth(stub), req, func(c echo.Context) error {
		identity = auth.GetIdentity(c.Request().Context())
		return nil
	})

	require.NotNil(t, identity)
	assert.Equal(t, int64(42), identity.UserID)
}

func TestTokenAuth_InvalidTokenIsAnonymous(t *testing.T) {
	stub := &stubAuthenticator{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bad")

	called := false
	serve(t, middleware.TokenAuth(stub), req, func(c echo.Context) error {
		called = true
		assert.False(t, auth.IsAuthenticated(c.Request().Context()))
		return nil
	})

	assert.True(t, called)
	assert.Equal(t, 1, stub.calls)
}

func TestTokenAuth_NoHeaderSkipsLookup(t *testing.T) {
	stub := &stubAuthenticator{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	serve(t, middleware.TokenAuth(stub), req, func(c echo.Context) error {
		assert.Nil(t, auth.GetIdentity(c.Request().Context()))
		return nil
	})

	assert.Zero(t, stub.calls)
}

func TestLocale(t *testing.T) {
	require.NoError(t, i18n.Init())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")

	var message string
	serve(t, middleware.Locale(), req, func(c echo.Context) error {
		message = i18n.T(c.Request().Context(), "user_not_found")
		return nil
	})

	assert.Equal(t, "Benutzer nicht gefunden", message)
}

func TestLocale_DefaultsToEnglish(t *testing.T) {
	require.NoError(t, i18n.Init())
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	var locale string
	serve(t, middleware.Locale(), req, func(c echo.Context) error {
		locale = i18n.GetLocale(c.Request().Context())
		return nil
	})

	assert.Equal(t, "en", locale)
}
