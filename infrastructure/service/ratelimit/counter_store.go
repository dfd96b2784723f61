package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/vendora/vendora/application/port/outbound"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// RateLimitConfig configuration untuk counter store
type RateLimitConfig struct {
	Enabled         bool
	Backend         string
	RedisURL        string
	KeyPrefix       string
	JanitorInterval time.Duration
}

// NewCounterStore builds the counter store for the configured backend. A
// disabled limiter gets a no-op store.
func NewCounterStore(config RateLimitConfig, logger *logrus.Logger) (outbound.CounterStore, func() error, error) {
	if !config.Enabled {
		logger.Info("Rate limiting disabled")
		return NoopCounterStore{}, func() error { return nil }, nil
	}

	switch config.Backend {
	case BackendMemory:
		store := NewMemoryCounterStore(nil)
		interval := config.JanitorInterval
		if interval <= 0 {
			interval = time.Minute
		}
		stop := store.StartJanitor(interval)
		logger.WithFields(logrus.Fields{
			"backend":          BackendMemory,
			"janitor_interval": interval,
		}).Info("Rate limit counter store initialized")
		return store, func() error { stop(); return nil }, nil

	case BackendRedis, "":
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client := redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"backend": BackendRedis,
			"addr":    opt.Addr,
			"db":      opt.DB,
		}).Info("Rate limit counter store initialized")
		return NewRedisCounterStore(client, config.KeyPrefix, logger), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown rate limit backend %q", config.Backend)
	}
}
