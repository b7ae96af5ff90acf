package ratelimiter

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/lowc1012/swc-rate-limiter/internal/log"
	"github.com/lowc1012/swc-rate-limiter/internal/utils"
	"go.uber.org/zap"
)

const (
	rateLimitLimit     = "X-Ratelimit-Limit"
	rateLimitRemaining = "X-Ratelimit-Remaining"
	rateLimitState     = "X-Ratelimit-State"
	retryAfter         = "Retry-After"
)

type resultContextKey struct{}

// Config defines the configuration for the rate limiter handler.
type Config struct {
	Extractor utils.Extractor
	Limiter   RateLimiter
}

type httpRateLimiterHandler struct {
	handler http.Handler
	config  *Config
}

// DeniedResponse is the body sent with a 429 response.
type DeniedResponse struct {
	Allowed       bool    `json:"allowed"`
	RetryAfterSec float64 `json:"retryAfterSec"`
}

// NewHTTPRateLimiterHandler wraps an existing http.Handler object performing rate limiting before
// sending the request to the wrapped handler. If the request is denied, the rate limiting handler
// answers 429 itself and does not call the wrapped handler.
func NewHTTPRateLimiterHandler(originalHandler http.Handler, config *Config) http.Handler {
	return &httpRateLimiterHandler{
		handler: originalHandler,
		config:  config,
	}
}

// ResultFromContext returns the admission result stored by the rate limiting handler.
func ResultFromContext(ctx context.Context) (*Result, bool) {
	r, ok := ctx.Value(resultContextKey{}).(*Result)
	return r, ok
}

func (h *httpRateLimiterHandler) writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(body); err != nil {
		log.Logger().Error("Failed to write body to HTTP response", zap.Error(err))
	}
}

// ServeHTTP performs rate limiting and, if the request was allowed, sends it to the wrapped handler.
// The rate limiting headers are set on both outcomes so the client knows what state it is in.
func (h *httpRateLimiterHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	var key string
	if h.config.Extractor != nil {
		key = h.config.Extractor.Extract(request)
	}

	result, err := h.config.Limiter.Run(request.Context(), &Request{
		Key: key,
	})
	if err != nil {
		log.Logger().Error("Failed to run rate limiting", zap.String("key", key), zap.Error(err))
		h.writeJSON(writer, http.StatusInternalServerError, map[string]string{
			"error": "failed to run rate limiting for request",
		})
		return
	}

	writer.Header().Set(rateLimitLimit, strconv.FormatInt(result.Limit, 10))
	writer.Header().Set(rateLimitRemaining, strconv.FormatInt(result.Remaining, 10))
	writer.Header().Set(rateLimitState, result.State.String())

	if result.State == Deny {
		writer.Header().Set(retryAfter, strconv.FormatInt(retryAfterHeader(result), 10))
		h.writeJSON(writer, http.StatusTooManyRequests, DeniedResponse{
			Allowed:       false,
			RetryAfterSec: float64(result.RetryAfter.Milliseconds()) / 1000.0,
		})
		return
	}

	ctx := context.WithValue(request.Context(), resultContextKey{}, result)
	h.handler.ServeHTTP(writer, request.WithContext(ctx))
}

// retryAfterHeader rounds up to whole seconds, Retry-After does not carry fractions.
func retryAfterHeader(r *Result) int64 {
	return int64(math.Ceil(r.RetryAfter.Seconds()))
}
