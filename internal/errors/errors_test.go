package errors

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := NewMalformedArtifactError("outputs/forecast.csv", cause)

	assert.Equal(t, ErrTypeMalformedArtifact, err.Type)
	assert.Contains(t, err.Error(), "MALFORMED_ARTIFACT")
	assert.Contains(t, err.Error(), "outputs/forecast.csv")
	assert.ErrorIs(t, err, cause)

	missing := NewMissingArtifactError("data/train.csv")
	assert.Equal(t, ErrTypeMissingArtifact, missing.Type)
	assert.Nil(t, missing.Unwrap())
}

func TestAppErrorContext(t *testing.T) {
	err := NewSchemaMismatchError("amount", "orders")

	require.NotNil(t, err.Context)
	assert.Equal(t, "orders", err.Context["artifact"])

	err.WithContext("columns", 3)
	assert.Equal(t, 3, err.Context["columns"])
}

func newTestErrorHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestHandleErrorAPIError(t *testing.T) {
	h := newTestErrorHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/overview", nil)

	h.HandleError(rec, req, ErrNoData)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/errors/no-data")
	assert.Contains(t, body, "NO_DATA_AVAILABLE")
	assert.Contains(t, body, "/api/insights/overview")
}

func TestHandleErrorAppErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"insufficient data", NewInsufficientDataError("no usable history", nil), http.StatusUnprocessableEntity, TypeNoBaseline},
		{"missing artifact", NewMissingArtifactError("data/train.csv"), http.StatusNotFound, TypeNotFound},
		{"validation", NewAppError(ErrTypeValidation, "bad horizon", nil), http.StatusBadRequest, TypeValidation},
		{"storage falls through to internal", NewStorageError("write failed", nil), http.StatusInternalServerError, TypeInternal},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	h := newTestErrorHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantType)
		})
	}
}

func TestProblemDetailsMarshalFlattensExtensions(t *testing.T) {
	p := NewProblemDetails(400, TypeValidation, "Bad Request", "horizon out of range", "/forecast").
		WithExtension("error_code", "VALIDATION_FAILED")

	data, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error_code":"VALIDATION_FAILED"`)
	assert.Contains(t, string(data), `"instance":"/forecast"`)
}

func TestNotFoundHandler(t *testing.T) {
	h := newTestErrorHandler()
	rec := httptest.NewRecorder()

	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/not-found")
}
