package ratelimiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lowc1012/swc-rate-limiter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Run(ctx context.Context, req *Request) (*Result, error) {
	return nil, errors.New("boom")
}

func (failingLimiter) Status(ctx context.Context) (*Status, error) {
	return nil, errors.New("boom")
}

func (failingLimiter) Type() Type {
	return SlidingWindowLimiterType
}

func newTestHandler(t *testing.T, limiter RateLimiter) (http.Handler, *int) {
	t.Helper()
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		result, ok := ResultFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, Allow, result.State)
		w.WriteHeader(http.StatusOK)
	})
	return NewHTTPRateLimiterHandler(next, &Config{
		Extractor: utils.NewHTTPHeadersExtractor("X-Forwarded-For"),
		Limiter:   limiter,
	}), &calls
}

func TestHTTPRateLimiterHandler_Allowed(t *testing.T) {
	l, _ := newTestLimiter(t, 10, nil)
	handler, calls := newTestHandler(t, l)

	req := httptest.NewRequest("POST", "/swc/request", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "10", rr.Header().Get("X-Ratelimit-Limit"))
	assert.Equal(t, "9", rr.Header().Get("X-Ratelimit-Remaining"))
	assert.Equal(t, "Allow", rr.Header().Get("X-Ratelimit-State"))
	assert.Empty(t, rr.Header().Get("Retry-After"))
}

func TestHTTPRateLimiterHandler_Denied(t *testing.T) {
	l, clock := newTestLimiter(t, 2, nil)
	handler, calls := newTestHandler(t, l)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/swc/request", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	clock.Advance(2500 * time.Millisecond)
	req := httptest.NewRequest("POST", "/swc/request", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, "Deny", rr.Header().Get("X-Ratelimit-State"))
	assert.Equal(t, "0", rr.Header().Get("X-Ratelimit-Remaining"))
	assert.Equal(t, "8", rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body DeniedResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.False(t, body.Allowed)
	assert.InDelta(t, 7.5, body.RetryAfterSec, 1e-9)
}

func TestHTTPRateLimiterHandler_LimiterError(t *testing.T) {
	handler, calls := newTestHandler(t, failingLimiter{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/swc/request", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Zero(t, *calls)
}

func TestResultFromContext_Missing(t *testing.T) {
	_, ok := ResultFromContext(context.Background())
	assert.False(t, ok)
}
