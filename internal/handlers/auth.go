// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/go-accounts/internal/middleware"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// LoginRequest is the request body of the sign-in endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials and returns a new session token.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return auth.ErrAuthenticationFailed
	}

	result, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Logout revokes the presented token, if any. It always succeeds.
func (h *Handlers) Logout(c echo.Context) error {
	h.accounts.Logout(c.Request().Context(), middleware.BearerToken(c.Request()))
	return c.NoContent(http.StatusOK)
}
