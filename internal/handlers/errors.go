// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Path             string            `json:"path"`
	Timestamp        int64             `json:"timestamp"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindValidationFailed, auth.KindInvalidToken:
		return http.StatusBadRequest
	case auth.KindAuthenticationFailed:
		return http.StatusUnauthorized
	case auth.KindAccountInactive, auth.KindForbidden:
		return http.StatusForbidden
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindEmailDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// codeForStatus names echo's own errors (unknown route, oversized body, bad JSON).
func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "invalid_request"
	}
}

// ErrorHandler renders every error returned by a handler as ErrorResponse.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ctx := c.Request().Context()
	resp := ErrorResponse{
		Path:      c.Request().URL.Path,
		Timestamp: time.Now().UnixMilli(),
	}

	var (
		status int
		verr   *auth.ValidationError
		aerr   *auth.Error
		herr   *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Message = i18n.T(ctx, auth.ErrValidationFailed.Code)
		resp.ValidationErrors = lo.MapValues(verr.Fields, func(code, _ string) string {
			return i18n.T(ctx, code)
		})
	case errors.As(err, &aerr):
		status = statusFor(aerr.Kind)
		resp.Message = i18n.T(ctx, aerr.Code)
		if aerr.Kind == auth.KindEmailDeliveryFailed {
			slog.Error("email_delivery_failed", "path", resp.Path, "error", err)
		}
	case errors.As(err, &herr):
		status = herr.Code
		resp.Message = i18n.T(ctx, codeForStatus(status))
		if status >= http.StatusInternalServerError {
			slog.Error("request_failed", "path", resp.Path, "error", err)
		}
	default:
		status = http.StatusInternalServerError
		resp.Message = i18n.T(ctx, "internal_error")
		slog.Error("request_failed", "path", resp.Path, "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, resp)
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr, "cause", err)
	}
}
