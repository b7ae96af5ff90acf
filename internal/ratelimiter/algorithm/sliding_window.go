package algorithm

import (
	"errors"
	"math"
	"sync"
	"time"
)

var (
	ErrInvalidWindowSize = errors.New("window size must be at least 1ms")
	ErrInvalidLimit      = errors.New("limit must not be negative")
)

// Decision is the outcome of a single TryAcquire call.
type Decision struct {
	Allowed    bool
	Remaining  int64         // meaningful only when Allowed
	RetryAfter time.Duration // meaningful only when denied
}

// RetryAfterSeconds returns RetryAfter in fractional seconds.
func (d Decision) RetryAfterSeconds() float64 {
	return float64(d.RetryAfter.Milliseconds()) / 1000.0
}

// Status is a read-only snapshot of the limiter load.
type Status struct {
	Limit           int64
	EffectiveCount  float64
	Remaining       int64
	WindowSize      time.Duration
	ElapsedInWindow time.Duration
}

// SlidingWindow approximates a sliding window with two adjacent fixed windows. The count of the
// previous window is weighted by how much of it still overlaps the sliding window:
//
//	effective = currentCount + prevCount * (1 - elapsed/windowSize)
//
// Windows are rolled lazily when an operation observes a new boundary, so an idle limiter costs nothing.
type SlidingWindow struct {
	mu         sync.Mutex
	windowSize int64 // millis
	limit      int64

	currentWindowStart int64 // millis, always a multiple of windowSize
	currentCount       int64
	prevCount          int64
}

// NewSlidingWindow creates a SlidingWindow admitting at most limit requests per windowSize.
// The first window is aligned on now.
func NewSlidingWindow(windowSize time.Duration, limit int64, now time.Time) (*SlidingWindow, error) {
	if windowSize.Milliseconds() < 1 {
		return nil, ErrInvalidWindowSize
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	w := &SlidingWindow{
		windowSize: windowSize.Milliseconds(),
		limit:      limit,
	}
	w.currentWindowStart = w.align(now.UnixMilli())
	return w, nil
}

func (w *SlidingWindow) Limit() int64 {
	return w.limit
}

func (w *SlidingWindow) WindowSize() time.Duration {
	return time.Duration(w.windowSize) * time.Millisecond
}

// TryAcquire admits one request at now if the effective count is below the limit.
func (w *SlidingWindow) TryAcquire(now time.Time) Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	ms := w.roll(now.UnixMilli())
	if w.effectiveCount(ms) < float64(w.limit) {
		w.currentCount++
		return Decision{
			Allowed:   true,
			Remaining: w.remaining(w.effectiveCount(ms)),
		}
	}

	// conservative: the previous window may fade enough before the current one closes
	remainMs := w.windowSize - (ms - w.currentWindowStart)
	if remainMs < 0 {
		remainMs = 0
	}
	return Decision{
		Allowed:    false,
		RetryAfter: time.Duration(remainMs) * time.Millisecond,
	}
}

// Status reports the load at now without admitting anything.
func (w *SlidingWindow) Status(now time.Time) Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	ms := w.roll(now.UnixMilli())
	effective := w.effectiveCount(ms)
	return Status{
		Limit:           w.limit,
		EffectiveCount:  effective,
		Remaining:       w.remaining(effective),
		WindowSize:      w.WindowSize(),
		ElapsedInWindow: time.Duration(ms-w.currentWindowStart) * time.Millisecond,
	}
}

// roll advances the windows to the boundary containing ms and returns the timestamp the caller
// should compute with. A timestamp before the current window start is clamped to that start.
func (w *SlidingWindow) roll(ms int64) int64 {
	if ms < w.currentWindowStart {
		return w.currentWindowStart
	}

	aligned := w.align(ms)
	if aligned == w.currentWindowStart {
		return ms
	}

	steps := (aligned - w.currentWindowStart) / w.windowSize
	if steps == 1 {
		w.prevCount = w.currentCount
	} else {
		// idle for more than a window, nothing adjacent to interpolate against
		w.prevCount = 0
	}
	w.currentCount = 0
	w.currentWindowStart = aligned
	return ms
}

func (w *SlidingWindow) effectiveCount(ms int64) float64 {
	return float64(w.currentCount) + float64(w.prevCount)*w.weightPrev(ms-w.currentWindowStart)
}

// weightPrev is the share of the previous window still covered by the sliding window, in [0, 1].
func (w *SlidingWindow) weightPrev(elapsed int64) float64 {
	weight := 1.0 - float64(elapsed)/float64(w.windowSize)
	return math.Max(0, math.Min(1, weight))
}

func (w *SlidingWindow) remaining(effective float64) int64 {
	r := math.Floor(float64(w.limit) - effective)
	if r < 0 {
		return 0
	}
	return int64(r)
}

// align floors ms to a window boundary, also for timestamps before the epoch.
func (w *SlidingWindow) align(ms int64) int64 {
	r := ms % w.windowSize
	if r < 0 {
		r += w.windowSize
	}
	return ms - r
}
