package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusTeapot, "teapot", "short and stout")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "teapot", resp.Error)
	assert.Equal(t, "short and stout", resp.Message)
}

func TestCommonWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
		wantCode   string
	}{
		{"bad request", WriteBadRequest, http.StatusBadRequest, "bad_request"},
		{"unauthorized", WriteUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", WriteForbidden, http.StatusForbidden, "forbidden"},
		{"not found", WriteNotFound, http.StatusNotFound, "not_found"},
		{"conflict", WriteConflict, http.StatusConflict, "conflict"},
		{"too many requests", WriteTooManyRequests, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"internal error", WriteInternalError, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "msg")

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "created"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"created"}`, rec.Body.String())
}
