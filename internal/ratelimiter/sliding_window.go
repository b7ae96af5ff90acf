package ratelimiter

import (
	"context"
	"time"

	"github.com/lowc1012/swc-rate-limiter/internal/log"
	"github.com/lowc1012/swc-rate-limiter/internal/ratelimiter/algorithm"
	"go.uber.org/zap"
)

// ensure that SlidingWindowLimiter satisfies an interface RateLimiter
var _ RateLimiter = &SlidingWindowLimiter{}

// SlidingWindowLimiter admits requests against a single resource using a sliding window counter:
// the exact count of the current fixed window plus the count of the previous one, weighted by how
// much of it still overlaps the sliding window.
type SlidingWindowLimiter struct {
	impl    *algorithm.SlidingWindow
	timeNow func() time.Time
	metrics *Metrics
}

// NewSlidingWindowLimiter creates a SlidingWindowLimiter allowing limit requests per windowSize.
// now is the clock the limiter reads; metrics may be nil.
func NewSlidingWindowLimiter(windowSize time.Duration, limit int64, now func() time.Time, metrics *Metrics) (*SlidingWindowLimiter, error) {
	if now == nil {
		now = time.Now
	}
	impl, err := algorithm.NewSlidingWindow(windowSize, limit, now())
	if err != nil {
		return nil, err
	}
	return &SlidingWindowLimiter{
		impl:    impl,
		timeNow: now,
		metrics: metrics,
	}, nil
}

func (l *SlidingWindowLimiter) Type() Type {
	return SlidingWindowLimiterType
}

func (l *SlidingWindowLimiter) Run(ctx context.Context, req *Request) (*Result, error) {
	var key string
	if req != nil {
		key = req.Key
	}

	d := l.impl.TryAcquire(l.timeNow())

	var result *Result
	if d.Allowed {
		result = &Result{State: Allow, Limit: l.impl.Limit(), Remaining: d.Remaining}
		log.Logger().Debug("Request allowed",
			zap.String("key", key),
			zap.Int64("remaining", d.Remaining))
	} else {
		result = &Result{State: Deny, Limit: l.impl.Limit(), RetryAfter: d.RetryAfter}
		log.Logger().Info("Request denied",
			zap.String("key", key),
			zap.Int64("limit", l.impl.Limit()),
			zap.Duration("retryAfter", d.RetryAfter))
	}

	l.metrics.observeDecision(result)
	return result, nil
}

func (l *SlidingWindowLimiter) Status(ctx context.Context) (*Status, error) {
	st := l.impl.Status(l.timeNow())
	l.metrics.observeStatus(&st)
	return &st, nil
}
