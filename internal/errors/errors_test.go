package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorageError("failed to save workbook", cause).WithContext("path", "/tmp/x.xlsx")

	assert.Equal(t, "[STORAGE] failed to save workbook: disk full", err.Error())
	assert.True(t, Is(err, cause))
	assert.Equal(t, "/tmp/x.xlsx", err.Context["path"])

	wrapped := fmt.Errorf("commit: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeStorage))
	assert.False(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(cause, ErrTypeStorage))

	assert.Equal(t, "[NOT_FOUND] sheet Summary not found", NewNotFoundError("sheet Summary").Error())
}

func TestErrorToProblem(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	r := httptest.NewRequest(http.MethodGet, "/api/columns/score", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"api not found", NotFoundError("header score"), http.StatusNotFound, TypeNotFound},
		{"api validation", ErrValidation("offset", "must be an integer"), http.StatusBadRequest, TypeValidation},
		{"wrapped api error", fmt.Errorf("x: %w", ErrGridSource), http.StatusBadGateway, TypeGridSource},
		{"network", NewNetworkError("sheets unreachable", nil), http.StatusBadGateway, TypeGridSource},
		{"parsing", NewParsingError("bad csv", nil), http.StatusUnprocessableEntity, TypeUnparseable},
		{"storage", NewStorageError("save failed", nil), http.StatusInternalServerError, TypeGridSource},
		{"app not found", NewNotFoundError("sheet"), http.StatusNotFound, TypeNotFound},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, "/api/columns/score", p.Instance)
		})
	}
}

func TestHandleErrorRendersProblem(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	r := httptest.NewRequest(http.MethodGet, "/api/columns/missing", nil)
	r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-123"))
	w := httptest.NewRecorder()

	h.HandleError(w, r, NotFoundError("header missing"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "header missing not found", body["detail"])
	assert.Equal(t, "req-123", body["trace_id"])
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestHandleErrorNil(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, w.Body.Len())
}

func TestProblemDetailsMarshalKeepsStandardFields(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "nope", "/x").
		WithExtension("status", "overridden?").
		WithExtension("field", "offset")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, "offset", body["field"])
	assert.Equal(t, "Bad Request", body["title"])
}

func TestAPIErrorHelpersDoNotMutateSentinels(t *testing.T) {
	err := ErrValidation("offset", "must be an integer")
	assert.Equal(t, ValidationError{Field: "offset", Message: "must be an integer"}, err.Details)
	assert.Nil(t, ErrValidationFailed.Details)

	nf := NotFoundError("header score")
	assert.Equal(t, "header score not found", nf.Error())
	assert.Equal(t, "Resource not found", ErrNotFound.Message)
	assert.Equal(t, CodeNotFound, nf.Code)
}
