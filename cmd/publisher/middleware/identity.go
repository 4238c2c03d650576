package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/publisher/cmd/publisher/models"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// CurrentUserKey is the context key for the authenticated user
	CurrentUserKey ContextKey = "current_user"
)

// Authenticator resolves an access token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// Identity extracts the bearer token from the Authorization header and
// resolves it to a user stored in the request context. A missing or
// invalid token leaves the request anonymous; operations that need an
// actor reject it themselves, after their existence checks, so a caller
// never learns less from being logged out.
//
// Usage:
//
//	posts := e.Group("/api/v1/posts", middleware.Identity(userService))
//
// Accessing in handlers:
//
//	actor := middleware.CurrentUser(c)
func Identity(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return next(c)
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				// Anonymous; bad credentials are not an error here
				return next(c)
			}

			c.Set(string(CurrentUserKey), user)
			return next(c)
		}
	}
}

// CurrentUser retrieves the authenticated user from the request context.
// Returns nil for anonymous requests.
func CurrentUser(c echo.Context) *models.User {
	user := c.Get(string(CurrentUserKey))
	if user == nil {
		return nil
	}
	return user.(*models.User)
}
