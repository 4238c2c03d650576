package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwell/publisher/cmd/publisher/container"
	"github.com/inkwell/publisher/cmd/publisher/handlers"
)

// RegisterAuthRoutes registers registration and login routes
func RegisterAuthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAuthHandler(c.UserService, c.Components.Logger)

	auth := e.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Register) // POST /api/v1/auth/register
		auth.POST("/login", h.Login)       // POST /api/v1/auth/login
	}
}
