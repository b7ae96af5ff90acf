package ratelimiter

import (
	"context"
	"time"

	"github.com/lowc1012/swc-rate-limiter/internal/ratelimiter/algorithm"
)

// Request identifies the caller of one unit of work. Key is only used for logging; a limiter
// instance always guards a single resource.
type Request struct {
	Key string
}

type State uint32

const (
	Deny State = iota
	Allow
)

func (s State) String() string {
	if s == Allow {
		return "Allow"
	}
	return "Deny"
}

type Result struct {
	State      State
	Limit      int64
	Remaining  int64         // set on Allow
	RetryAfter time.Duration // set on Deny
}

// Status is a snapshot of the limiter load, see algorithm.Status.
type Status = algorithm.Status

// Type defines the type of rate limiter.
type Type uint32

const (
	SlidingWindowLimiterType Type = iota
)

// RateLimiter defines the interface for a rate limiter.
type RateLimiter interface {
	Run(ctx context.Context, req *Request) (*Result, error)
	Status(ctx context.Context) (*Status, error)
	Type() Type
}
