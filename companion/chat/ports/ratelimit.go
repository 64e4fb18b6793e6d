package chatports

import "context"

// RateLimiter paces outbound calls. Acquire fails fast instead of waiting.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) error
}
