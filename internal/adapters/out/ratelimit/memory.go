// Package ratelimit implements fixed-window admission control in process
// memory and in Redis.
package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	shardCount          = 32
	defaultKeysPerShard = 4096
	DefaultInterval     = time.Minute
)

type window struct {
	start time.Time
	count int
}

type shard struct {
	mu      sync.Mutex
	windows *simplelru.LRU[string, *window]
}

// MemoryLimiter keeps one window per key, spread over mutex-guarded shards.
// Each shard holds a bounded number of keys and forgets the least recently
// seen one when full, which at worst hands that key a fresh window.
type MemoryLimiter struct {
	interval time.Duration
	shards   [shardCount]*shard
	now      func() time.Time
}

type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

func NewMemoryLimiter(interval time.Duration, keysPerShard int, opts ...MemoryOption) (*MemoryLimiter, error) {
	if interval <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("interval", interval, time.Millisecond, nil)
	}
	if keysPerShard <= 0 {
		keysPerShard = defaultKeysPerShard
	}

	l := &MemoryLimiter{interval: interval, now: time.Now}
	for i := range l.shards {
		cache, err := simplelru.NewLRU[string, *window](keysPerShard, nil)
		if err != nil {
			return nil, err
		}
		l.shards[i] = &shard{windows: cache}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Check counts the call against key and reports whether it fits in limit for
// the current window. The window restarts once more than interval has passed
// since it opened.
func (l *MemoryLimiter) Check(_ context.Context, limit int, key string) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	s := l.shards[shardIndex(key)]
	now := l.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows.Get(key)
	if !ok || now.Sub(w.start) > l.interval {
		w = &window{start: now}
		s.windows.Add(key, w)
	}

	if w.count >= limit {
		return false, nil
	}
	w.count++
	return true, nil
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
