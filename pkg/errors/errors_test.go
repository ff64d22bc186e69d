package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		kind   ErrorType
	}{
		{NewAuthenticationError(""), http.StatusUnauthorized, ErrorTypeAuthentication},
		{NewUnauthorizedError(""), http.StatusForbidden, ErrorTypeUnauthorized},
		{NewNotFoundError("journey"), http.StatusNotFound, ErrorTypeNotFound},
		{NewValidationError("bad"), http.StatusBadRequest, ErrorTypeValidation},
		{NewConflictError("stale"), http.StatusConflict, ErrorTypeConflict},
		{NewRateLimitError(10, "minute"), http.StatusTooManyRequests, ErrorTypeRateLimit},
		{NewDatabaseError("put", fmt.Errorf("boom")), http.StatusInternalServerError, ErrorTypeDatabase},
		{NewExternalError("stripe", fmt.Errorf("boom")), http.StatusBadGateway, ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.True(t, IsType(tt.err, tt.kind))
		})
	}
}

func TestGetAppErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading progress: %w", NewNotFoundError("journey progress"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestErrorHandlerWritesTaggedResult(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/journeys/x", nil)
	handler.Handle(rec, req, NewNotFoundError("journey"))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "journey not found", body.Error.Message)
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest("GET", "/", nil), fmt.Errorf("secret detail"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestValidationErrorsCollect(t *testing.T) {
	v := NewValidationErrors()
	assert.NoError(t, v.AsError())

	v.Add("title", "title is required")
	v.Add("type", "type is invalid")

	err := v.AsError()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "title is required; type is invalid", GetAppError(err).Message)
}
