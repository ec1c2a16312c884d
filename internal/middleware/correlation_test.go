package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := CorrelationFromContext(r.Context())
		require.True(t, ok)
		seen = id
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Correlation-ID"))
}

func TestCorrelationID_ReusesCallerHeader(t *testing.T) {
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc-123", GetCorrelationID(r.Context()))
	}))

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
}

func TestGetCorrelationID_UnknownOutsideRequest(t *testing.T) {
	assert.Equal(t, "unknown", GetCorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "queued-7")
	assert.Equal(t, "queued-7", GetCorrelationID(ctx))
}
