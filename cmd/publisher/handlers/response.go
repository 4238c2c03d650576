package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/logger"
)

// respondError maps an error to its HTTP response. Typed application
// errors carry their own status and client-safe message; everything else
// is logged and downgraded to a generic 500.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	if appErr, ok := apperr.As(err); ok {
		if appErr.Kind == apperr.KindInternal {
			log.Error("internal error", "error", err, "path", c.Path())
		}
		return c.JSON(appErr.HTTPStatus(), map[string]string{
			"error": appErr.Message,
		})
	}

	log.Error("unhandled error", "error", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
