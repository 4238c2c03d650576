package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwell/publisher/cmd/publisher/container"
	"github.com/inkwell/publisher/cmd/publisher/handlers"
	"github.com/inkwell/publisher/cmd/publisher/middleware"
)

// RegisterPostRoutes registers the post lifecycle routes. Identity is
// resolved leniently: anonymous callers reach the handlers, and each
// operation decides whether an actor is required.
func RegisterPostRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewPostHandler(c.PostService, c.Components.Logger)

	posts := e.Group("/api/v1/posts", middleware.Identity(c.UserService))
	{
		posts.POST("", h.CreatePost)       // POST   /api/v1/posts
		posts.GET("", h.ListPosts)         // GET    /api/v1/posts?authorId=&tag=&page=&limit=
		posts.GET("/:id", h.GetPost)       // GET    /api/v1/posts/{id}
		posts.PUT("/:id", h.UpdatePost)    // PUT    /api/v1/posts/{id}
		posts.DELETE("/:id", h.DeletePost) // DELETE /api/v1/posts/{id}
	}
}
