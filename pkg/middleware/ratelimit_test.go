package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabotai/webappshop/pkg/httputil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	h := RateLimit(0.001, 2, ClientIP, discardLogger())(okHandler())

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/session/submit", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)

	rec := send("10.0.0.1:5678")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	h := RateLimit(0, 1, nil, discardLogger())(okHandler())
	for range 10 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_CustomKey(t *testing.T) {
	bySession := func(r *http.Request) string { return r.Header.Get("X-Session-ID") }
	h := RateLimit(0.001, 1, bySession, discardLogger())(okHandler())

	send := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Session-ID", id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}

func TestLimiterStore_EvictsIdleVisitors(t *testing.T) {
	store := newLimiterStore(1, 1, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.allow("a")
	store.allow("b")
	require.Equal(t, 2, store.len())

	now = now.Add(2 * time.Minute)
	store.allow("c")
	assert.Equal(t, 1, store.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded first valid", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.7, 10.0.0.1"}, "10.0.0.9:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.9:80", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:4444", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
