package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGet(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return req
}

func TestClient_SendsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := New(DefaultConfig()).Do(context.Background(), newGet(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(DefaultConfig()).Do(ctx, newGet(t, srv.URL))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadStatusError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("  webhook not registered \n")),
	}
	err := ReadStatusError(resp, "order-webhook")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "webhook not registered", err.Body)
	assert.Equal(t, "order-webhook returned status 404: webhook not registered", err.Error())
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(302))
	assert.False(t, IsSuccess(500))
}

func TestBreaker_ServerErrorIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("sheet backend down"))
	}))
	defer srv.Close()

	b := NewBreaker(New(DefaultConfig()), DefaultBreakerConfig("test-500"), quietLogger())
	_, err := b.Do(context.Background(), newGet(t, srv.URL))
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "sheet backend down", statusErr.Body)
	assert.Equal(t, "test-500", statusErr.Service)
}

func TestBreaker_ClientErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	b := NewBreaker(New(DefaultConfig()), DefaultBreakerConfig("test-400"), quietLogger())
	resp, err := b.Do(context.Background(), newGet(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAndFallsBack(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultBreakerConfig("test-open")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute

	fallbackErr := errors.New("temporarily unavailable")
	b := NewBreaker(New(DefaultConfig()), cfg, quietLogger()).
		WithFallback(func(context.Context, error) (*http.Response, error) { return nil, fallbackErr })

	for range 2 {
		_, err := b.Do(context.Background(), newGet(t, srv.URL))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Do(context.Background(), newGet(t, srv.URL))
	assert.ErrorIs(t, err, fallbackErr)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreaker_OpenWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultBreakerConfig("test-open-plain")
	cfg.MinRequests = 1
	cfg.Timeout = time.Minute
	b := NewBreaker(New(DefaultConfig()), cfg, quietLogger())

	_, _ = b.Do(context.Background(), newGet(t, srv.URL))
	_, err := b.Do(context.Background(), newGet(t, srv.URL))

	assert.ErrorIs(t, err, ErrCircuitOpen)
}
