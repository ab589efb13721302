// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON API.
package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo     *repository.Repository
	accounts *auth.Service
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, accounts *auth.Service) *Handlers {
	return &Handlers{repo: repo, accounts: accounts}
}

// MessageResponse is the body of successful operations without payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// message responds with the localized text for code.
func message(c echo.Context, code string) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: i18n.T(c.Request().Context(), code)})
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
