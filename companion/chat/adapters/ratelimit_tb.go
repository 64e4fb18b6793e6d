package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// ErrRateLimitExceeded matches every *RateLimitError via errors.Is.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitError reports an empty bucket and when the next token arrives.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Key, e.RetryAfter.Round(100*time.Millisecond))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimitExceeded }

// TokenBucket paces requests per key. Each key starts full and regains one
// token every interval, up to capacity. Acquire never blocks.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	interval time.Duration
	levels   map[string]*level
	now      func() time.Time
}

type level struct {
	tokens  float64
	updated time.Time
}

// NewTokenBucket creates a limiter holding capacity tokens per key, refilled
// at one token per interval.
func NewTokenBucket(capacity int, interval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity: float64(capacity),
		interval: interval,
		levels:   make(map[string]*level),
		now:      time.Now,
	}
}

// Acquire takes one token for key or fails with a *RateLimitError.
func (tb *TokenBucket) Acquire(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	l, ok := tb.levels[key]
	if !ok {
		l = &level{tokens: tb.capacity, updated: now}
		tb.levels[key] = l
	}

	if elapsed := now.Sub(l.updated); elapsed > 0 {
		l.tokens = min(tb.capacity, l.tokens+float64(elapsed)/float64(tb.interval))
		l.updated = now
	}

	if l.tokens < 1 {
		wait := time.Duration((1 - l.tokens) * float64(tb.interval))
		return &RateLimitError{Key: key, RetryAfter: wait}
	}

	l.tokens--
	return nil
}

// Ensure TokenBucket implements the RateLimiter interface.
var _ ports.RateLimiter = (*TokenBucket)(nil)
