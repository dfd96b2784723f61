package ratelimit

import (
	"context"
	"time"
)

// NoopCounterStore never counts. Used when rate limiting is disabled.
type NoopCounterStore struct{}

func (NoopCounterStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	return 0, time.Now().Add(window), nil
}
