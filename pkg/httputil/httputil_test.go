package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alphabotai/webappshop/pkg/errors"
	"github.com/alphabotai/webappshop/pkg/logger"
	"github.com/alphabotai/webappshop/pkg/validator"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]int{"total": 3500})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"total":3500}}`, rec.Body.String())
}

func TestWriteError_AppError(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/session/next", nil)
	r = r.WithContext(logger.WithCorrelationID(r.Context(), "corr-9"))
	rec := httptest.NewRecorder()

	WriteError(rec, r, fmt.Errorf("advance: %w", apperrors.InvalidInput("city and street are required")), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Equal(t, "city and street are required", resp.Error.Message)
	assert.Equal(t, "corr-9", resp.Error.RequestID)
}

func TestWriteError_Validation(t *testing.T) {
	type body struct {
		City string `json:"city" validate:"notblank"`
	}
	err := validator.Validate(body{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodPut, "/", nil), err, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["city"])
}

func TestWriteError_PlainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("x: %w", apperrors.ErrUpstream), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, nil)
		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.code, decode(t, rec).Error.Code)
	}
}

func TestParseIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	idx, ok := ParseIndex(rec, "2")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	for _, bad := range []string{"-1", "abc", ""} {
		rec = httptest.NewRecorder()
		_, ok = ParseIndex(rec, bad)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PARAMETER", decode(t, rec).Error.Code)
	}
}
