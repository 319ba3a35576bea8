package ratelimit

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// fixedWindow increments the key and starts its expiry on the first hit, so
// the window opens with the first call and the counter vanishes with it.
var fixedWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter shares windows across instances. The script runs atomically on
// the server, so concurrent callers never both see the same count.
type RedisLimiter struct {
	client   redis.UniversalClient
	interval time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, interval time.Duration) (*RedisLimiter, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("client")
	}
	if interval < time.Millisecond {
		return nil, errs.NewValueIsOutOfRangeError("interval", interval, time.Millisecond, nil)
	}
	return &RedisLimiter{client: client, interval: interval}, nil
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (l *RedisLimiter) Check(ctx context.Context, limit int, key string) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	count, err := fixedWindow.Run(ctx, l.client, []string{redisKeyPrefix + key}, l.interval.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return count <= int64(limit), nil
}
