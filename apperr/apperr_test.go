package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Conflict("email already in use"), http.StatusBadRequest},
		{Auth("missing token"), http.StatusUnauthorized},
		{Forbidden("forbidden"), http.StatusForbidden},
		{NotFound("song not found"), http.StatusNotFound},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestFromClassifiesErrors(t *testing.T) {
	appErr := NotFound("gone")
	assert.Same(t, appErr, From(appErr))

	wrapped := fmt.Errorf("handler: %w", appErr)
	assert.Same(t, appErr, From(wrapped))

	plain := From(errors.New("db exploded"))
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, "internal server error", plain.Message)
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Internal(cause)

	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Forbidden("nope"))

	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindAuth))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}
