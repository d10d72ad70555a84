package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

func TestHandler_WritesAppError(t *testing.T) {
	handler := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.NewNotFoundResource("Player", "media_player.kitchen")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/media_player.kitchen", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, apperrors.ErrorTypeInvalidRequest, body.Error.Type)
}

func TestHandler_PlainErrorBecomesInternal(t *testing.T) {
	handler := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", seen)
}

func TestRequestIDMiddleware_ReplacesUnsafeIDs(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	for _, supplied := range []string{"abc 123", "line\nbreak", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, supplied)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotEqual(t, supplied, seen)
		_, err := uuid.Parse(seen)
		require.NoError(t, err, supplied)
		require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestGetRequestID_NilRequest(t *testing.T) {
	require.Empty(t, GetRequestID(nil))
	require.Empty(t, RequestID(context.Background()))
}

func TestRecovererMiddleware(t *testing.T) {
	handler := RecovererMiddleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteList(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteList(rec, "/v1/players", []string{"a"}, false))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "list", body["object"])
	require.Equal(t, "/v1/players", body["url"])
	require.Equal(t, []any{"a"}, body["data"])
}
