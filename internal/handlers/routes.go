// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import "github.com/labstack/echo/v4"

// APIPrefix is the path prefix of all API routes.
const APIPrefix = "/api/1.0"

// Routes registers all handlers on e.
func (h *Handlers) Routes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group(APIPrefix)

	api.POST("/auth", h.Login)
	api.POST("/logout", h.Logout)

	api.POST("/users", h.Register)
	api.POST("/users/token/:token", h.Activate)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)

	api.POST("/user/password", h.RequestPasswordReset)
	api.PUT("/user/password", h.ResetPassword)
}
