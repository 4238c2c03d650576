package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/publisher/cmd/publisher/service"
	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/logger"
)

// AuthHandler handles registration and login requests
type AuthHandler struct {
	users *service.UserService
	log   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users: users,
		log:   log,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, apperr.Validation("invalid request body"))
	}

	user, err := h.users.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user": user,
	})
}

// Login verifies credentials and issues tokens
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, apperr.Validation("invalid request body"))
	}

	tokens, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, tokens)
}
