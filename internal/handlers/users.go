// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	authctx "codeberg.org/oliverandrich/go-accounts/internal/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/validation"
	"github.com/labstack/echo/v4"
)

// Register validates the input, creates the account and sends the
// activation mail.
func (h *Handlers) Register(c echo.Context) error {
	var req validation.Registration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}

	ctx := c.Request().Context()
	if err := req.Validate(ctx, h.repo.EmailExists); err != nil {
		return err
	}

	err := h.accounts.Register(ctx, auth.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return message(c, "user_created")
}

// Activate consumes the activation token from the path.
func (h *Handlers) Activate(c echo.Context) error {
	if err := h.accounts.Activate(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return message(c, "account_activation_success")
}

// ListUsers returns a page of activated users without the caller.
func (h *Handlers) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	page, size := pagination(c)

	result, err := h.accounts.ListUsers(ctx, page, size, authctx.UserID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetUser returns a single activated user.
func (h *Handlers) GetUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return auth.ErrUserNotFound
	}

	user, err := h.accounts.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser changes the username of the caller's own account.
// Ownership is checked before the input is validated.
func (h *Handlers) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	viewerID := authctx.UserID(ctx)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || viewerID == 0 || viewerID != id {
		return auth.ErrUnauthorizedUpdate
	}

	var req validation.UserUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := h.accounts.UpdateUser(ctx, viewerID, id, req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes the caller's own account.
func (h *Handlers) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return auth.ErrUnauthorizedDelete
	}

	if err := h.accounts.DeleteUser(ctx, authctx.UserID(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
