package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{"validation", Validation("title is required"), http.StatusBadRequest, "VALIDATION_ERROR", "title is required"},
		{"unauthorized", Unauthorized("invalid token"), http.StatusUnauthorized, "UNAUTHORIZED", "invalid token"},
		{"not found", NotFound("task not found"), http.StatusNotFound, "NOT_FOUND", "task not found"},
		{"conflict", Conflict("user already exists"), http.StatusConflict, "CONFLICT", "user already exists"},
		{"internal hides cause", Internal(errors.New("dial tcp: refused")), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
		{"wrapped app error", fmt.Errorf("load: %w", NotFound("task not found")), http.StatusNotFound, "NOT_FOUND", "task not found"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.expectedStatus, httpErr.StatusCode)
			assert.Equal(t, tt.expectedCode, httpErr.Code)
			assert.Equal(t, tt.expectedMsg, httpErr.Message)
		})
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(fmt.Errorf("wrap: %w", Conflict("dup")), KindConflict))
	assert.False(t, Is(nil, KindInternal))
	assert.Equal(t, KindInternal, KindOf(errors.New("other")))
	assert.Equal(t, "not_found", KindNotFound.String())
}
