package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/inkwell/publisher/cmd/publisher/container"
	"github.com/inkwell/publisher/cmd/publisher/routes"
	"github.com/inkwell/publisher/common/bootstrap"
	"github.com/inkwell/publisher/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "publisher")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap publisher: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server with graceful shutdown
	srv := server.New("publisher", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]string{
				"status":  "degraded",
				"service": "publisher",
			})
		}
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "publisher",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterAuthRoutes(e, serviceContainer)
	routes.RegisterPostRoutes(e, serviceContainer)
}
