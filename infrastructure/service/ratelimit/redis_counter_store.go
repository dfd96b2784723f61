package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// incrScript increments the counter and starts the window on the first hit.
// The expiry is only set when the key has none, so later hits never slide
// the window.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisCounterStore shares counters across instances through Redis.
type RedisCounterStore struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *logrus.Logger
	now       func() time.Time
}

func NewRedisCounterStore(client redis.UniversalClient, keyPrefix string, logger *logrus.Logger) *RedisCounterStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisCounterStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *RedisCounterStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if window <= 0 {
		return 0, time.Time{}, fmt.Errorf("invalid window %s", window)
	}

	fullKey := s.keyPrefix + key
	res, err := incrScript.Run(ctx, s.client, []string{fullKey}, window.Milliseconds()).Result()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("key", fullKey).Error("Failed to increment rate limit counter")
		return 0, time.Time{}, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected script reply %v", res)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unexpected counter value %v", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unexpected ttl value %v", values[1])
	}

	resetAt := s.now().Add(time.Duration(ttl) * time.Millisecond)

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"key":      fullKey,
		"count":    count,
		"reset_at": resetAt.Unix(),
	}).Debug("Rate limit incremented")

	return count, resetAt, nil
}
