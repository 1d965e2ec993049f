package enhancer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabotai/webappshop/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(url string) *Client {
	return NewClient(httpclient.New(httpclient.DefaultConfig()), Config{
		BaseURL: url + "/v1beta/",
		Model:   "gemini-2.0-flash",
		APIKey:  "k-123",
		Timeout: time.Second,
	}, testLogger())
}

func TestPrompt(t *testing.T) {
	p := Prompt("Mug", "Ceramic mug")
	assert.Contains(t, p, "Keep it concise (2-3 sentences).")
	assert.Contains(t, p, `Product Name: "Mug".`)
	assert.Contains(t, p, `Current Description: "Ceramic mug"`)
}

func TestGenerate_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  A mug you will love.\n"}]}}]}`))
	}))
	defer srv.Close()

	text, err := newClient(srv.URL).Generate(context.Background(), "prompt text")

	require.NoError(t, err)
	assert.Equal(t, "A mug you will love.", text)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "k-123", gotKey)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "prompt text", gotReq.Contents[0].Parts[0].Text)
}

func TestGenerate_MissingShape(t *testing.T) {
	for _, body := range []string{`{"candidates":[]}`, `{"candidates":[{"content":{"parts":[]}}]}`, `{"candidates":[{"content":{"parts":[{"text":" "}]}}]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newClient(srv.URL).Generate(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyCompletion)
		srv.Close()
	}
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid."}}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Generate(context.Background(), "p")

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "API key not valid.", statusErr.Body)
}

func TestGenerate_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(srv.URL).Generate(context.Background(), "p")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "k-123")
}

func TestRedactKey(t *testing.T) {
	const key = "a b/c+d"

	tests := []struct {
		name string
		msg  string
	}{
		{"escaped in url", `Post "https://api/x?key=a+b%2Fc%2Bd": dial tcp: refused`},
		{"raw", "bad key a b/c+d"},
		{"both", "key=a+b%2Fc%2Bd raw=a b/c+d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactKey(errors.New(tt.msg), key).Error()
			assert.NotContains(t, got, key)
			assert.NotContains(t, got, "a+b%2Fc%2Bd")
			assert.Contains(t, got, "REDACTED")
		})
	}

	plain := errors.New("connection refused")
	assert.Same(t, plain, redactKey(plain, key))
}
