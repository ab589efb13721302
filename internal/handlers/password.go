// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/go-accounts/internal/validation"
	"github.com/labstack/echo/v4"
)

// RequestPasswordReset mails a reset link to a known address.
func (h *Handlers) RequestPasswordReset(c echo.Context) error {
	var req validation.PasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return message(c, "password_reset_request_success")
}

// ResetPassword sets a new password. The token is checked first so that
// password rules cannot be probed without a valid token.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req validation.PasswordReset
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}

	ctx := c.Request().Context()
	if err := h.accounts.CheckPasswordResetToken(ctx, req.PasswordResetToken); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(ctx, req.PasswordResetToken, req.Password); err != nil {
		return err
	}
	return message(c, "password_update_success")
}
