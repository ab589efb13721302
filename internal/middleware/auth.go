// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/go-accounts/internal/auth"
	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// Authenticator resolves a bearer token to an identity, or nil if the
// token is not valid.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) *auth.Identity
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// TokenAuth resolves the bearer token of every request and stores the
// identity in the request context. Requests without a valid token continue
// as anonymous; handlers decide whether that is allowed.
func TokenAuth(authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c.Request())
			if token == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			if identity := authenticator.Authenticate(ctx, token); identity != nil {
				c.SetRequest(c.Request().WithContext(auth.WithIdentity(ctx, identity)))
			}
			return next(c)
		}
	}
}
