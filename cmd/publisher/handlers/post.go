package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inkwell/publisher/cmd/publisher/middleware"
	"github.com/inkwell/publisher/cmd/publisher/service"
	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/logger"
)

// PostHandler handles post lifecycle requests
type PostHandler struct {
	posts *service.PostService
	log   *logger.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(posts *service.PostService, log *logger.Logger) *PostHandler {
	return &PostHandler{
		posts: posts,
		log:   log,
	}
}

// postRequest is the body of create and update calls. Published omitted
// means "default false" on create and "leave unchanged" on update; tags
// omitted means "leave associations unchanged" while an empty list
// clears them.
type postRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Published *bool    `json:"published"`
	Tags      []string `json:"tags"`
}

// CreatePost creates a new post owned by the caller
// POST /api/v1/posts
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, apperr.Validation("invalid request body"))
	}

	detail, err := h.posts.Create(c.Request().Context(), middleware.CurrentUser(c), service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
		Tags:      req.Tags,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"post": detail,
	})
}

// GetPost retrieves a post with its author and tags
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// A malformed id is indistinguishable from an unknown one
		return respondError(c, h.log, apperr.NotFound("post not found"))
	}

	detail, err := h.posts.Get(c.Request().Context(), postID, middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"post": detail,
	})
}

// UpdatePost rewrites a post's fields and optionally its tag set
// PUT /api/v1/posts/:id
func (h *PostHandler) UpdatePost(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, h.log, apperr.NotFound("post not found"))
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, apperr.Validation("invalid request body"))
	}

	detail, err := h.posts.Update(c.Request().Context(), middleware.CurrentUser(c), postID, service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
		Tags:      req.Tags,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"post": detail,
	})
}

// DeletePost removes a post and its tag associations
// DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, h.log, apperr.NotFound("post not found"))
	}

	if err := h.posts.Delete(c.Request().Context(), middleware.CurrentUser(c), postID); err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{})
}

// ListPosts returns a page of published posts
// GET /api/v1/posts?authorId=&tag=&page=1&limit=10
func (h *PostHandler) ListPosts(c echo.Context) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	result, err := h.posts.List(c.Request().Context(), service.ListQuery{
		AuthorID: c.QueryParam("authorId"),
		TagName:  c.QueryParam("tag"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, result)
}

// queryInt parses an integer query parameter, falling back to a default
// when absent or unparseable
func queryInt(c echo.Context, name string, defaultValue int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
