package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Unauthenticated("login required"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("duplicate"), http.StatusConflict},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), tc.err.Message)
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal(cause)

	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("loading post: %w", NotFound("post not found"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, appErr.Kind)
	assert.Equal(t, "post not found", appErr.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)

	_, ok = As(nil)
	assert.False(t, ok)
}

func TestIsKind(t *testing.T) {
	err := Forbidden("not yours")

	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
	assert.False(t, IsKind(nil, KindForbidden))
}

func TestMessageFormatting(t *testing.T) {
	err := Validation("field %q is required", "title")
	assert.Equal(t, `field "title" is required`, err.Message)
	assert.Equal(t, `field "title" is required`, err.Error())
}
