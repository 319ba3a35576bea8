package ports

import "context"

// RateLimiter admits at most limit calls per key in each fixed window.
type RateLimiter interface {
	Check(ctx context.Context, limit int, key string) (bool, error)
}
