package client

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound requests and pauses them entirely after the
// server answers 429.
type RateLimiter struct {
	limiter *rate.Limiter
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
}

// NewRateLimiter allows rps requests per second. rps <= 0 means unlimited.
func NewRateLimiter(rps float64) *RateLimiter {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		limit:   limit,
		burst:   burst,
	}
}

func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// BlockFor rejects requests for the given duration, then restores the
// configured limit.
func (rl *RateLimiter) BlockFor(duration time.Duration) {
	rl.mu.Lock()
	rl.limiter.SetLimit(0)
	rl.limiter.SetBurst(0)
	rl.mu.Unlock()

	time.AfterFunc(duration, func() {
		rl.mu.Lock()
		rl.limiter.SetLimit(rl.limit)
		rl.limiter.SetBurst(rl.burst)
		rl.mu.Unlock()
	})
}

// ParseRetryAfter reads Retry-After as seconds or an HTTP date. Missing or
// malformed values default to one minute.
func ParseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return time.Minute
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}

	return time.Minute
}
