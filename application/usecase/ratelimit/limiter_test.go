package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora/application/port/inbound"
)

type MockCounterStore struct {
	mock.Mock
}

func (m *MockCounterStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Time), args.Error(2)
}

// clockStore is a fixed-window counter driven by the test's clock.
type clockStore struct {
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	count   int64
	resetAt time.Time
}

func (s *clockStore) IncrementAndGet(_ context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	now := s.now()
	w, ok := s.buckets[key]
	if !ok || !now.Before(w.resetAt) {
		w = &bucket{resetAt: now.Add(ttl)}
		s.buckets[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

func newLimiter(t *testing.T, now *time.Time) *Limiter {
	t.Helper()
	counters := &clockStore{now: func() time.Time { return *now }, buckets: map[string]*bucket{}}
	limiter, err := NewLimiter(counters, DefaultPolicy())
	require.NoError(t, err)
	return limiter
}

func TestLimiter_AnonymousTier(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newLimiter(t, &now)
	ctx := context.Background()
	id := inbound.Identity{ClientIP: "203.0.113.7", Path: "/api/v1/products"}

	for i := 1; i <= 10; i++ {
		d, err := limiter.Admit(ctx, id)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, int64(10), d.Limit)
		assert.Equal(t, int64(10-i), d.Remaining)
		assert.Equal(t, inbound.TierAnonymous, d.Tier)
		assert.Equal(t, "ratelimit:ip:203.0.113.7", d.Key)
	}

	d, err := limiter.Admit(ctx, id)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, 60*time.Second, d.RetryAfter(now))

	now = now.Add(61 * time.Second)
	d, err = limiter.Admit(ctx, id)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(9), d.Remaining)
}

func TestLimiter_Tiers(t *testing.T) {
	now := time.Now()
	limiter := newLimiter(t, &now)
	ctx := context.Background()

	tests := []struct {
		name      string
		id        inbound.Identity
		wantTier  inbound.Tier
		wantLimit int64
		wantKey   string
	}{
		{
			name:      "authenticated",
			id:        inbound.Identity{UserID: "u1", ClientIP: "10.0.0.1", Path: "/api/v1/products"},
			wantTier:  inbound.TierAuthenticated,
			wantLimit: 100,
			wantKey:   "ratelimit:user:u1",
		},
		{
			name:      "privileged",
			id:        inbound.Identity{UserID: "admin1", Privileged: true, ClientIP: "10.0.0.1", Path: "/api/v1/products"},
			wantTier:  inbound.TierPrivileged,
			wantLimit: 1000,
			wantKey:   "ratelimit:user:admin1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := limiter.Admit(ctx, tt.id)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, tt.wantTier, d.Tier)
			assert.Equal(t, tt.wantLimit, d.Limit)
			assert.Equal(t, tt.wantLimit-1, d.Remaining)
			assert.Equal(t, tt.wantKey, d.Key)
		})
	}
}

func TestLimiter_UserIsNotLimitedByIP(t *testing.T) {
	now := time.Now()
	limiter := newLimiter(t, &now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := limiter.Admit(ctx, inbound.Identity{ClientIP: "10.0.0.1", Path: "/api/v1/products"})
		require.NoError(t, err)
	}

	d, err := limiter.Admit(ctx, inbound.Identity{UserID: "u1", ClientIP: "10.0.0.1", Path: "/api/v1/products"})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_ExemptPathsAreNotCounted(t *testing.T) {
	m := new(MockCounterStore)
	limiter, err := NewLimiter(m, DefaultPolicy())
	require.NoError(t, err)

	for _, path := range []string{"/admin/products", "/health", "/metrics"} {
		d, err := limiter.Admit(context.Background(), inbound.Identity{ClientIP: "1.1.1.1", Path: path})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.True(t, d.Exempt)
	}
	m.AssertNotCalled(t, "IncrementAndGet", mock.Anything, mock.Anything, mock.Anything)
}

func TestLimiter_CounterStoreError(t *testing.T) {
	m := new(MockCounterStore)
	m.On("IncrementAndGet", mock.Anything, "ratelimit:ip:1.1.1.1", DefaultWindow).
		Return(int64(0), time.Time{}, errors.New("connection refused"))

	limiter, err := NewLimiter(m, DefaultPolicy())
	require.NoError(t, err)

	d, err := limiter.Admit(context.Background(), inbound.Identity{ClientIP: "1.1.1.1", Path: "/api/v1/products"})
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, inbound.TierAnonymous, d.Tier)
	m.AssertExpectations(t)
}

func TestLimiter_CustomPolicy(t *testing.T) {
	m := new(MockCounterStore)
	reset := time.Now().Add(30 * time.Second)
	m.On("IncrementAndGet", mock.Anything, "ratelimit:user:u9", 30*time.Second).Return(int64(3), reset, nil)

	limiter, err := NewLimiter(m, Policy{AnonymousLimit: 1, UserLimit: 2, PrivilegedLimit: 5, Window: 30 * time.Second})
	require.NoError(t, err)

	d, err := limiter.Admit(context.Background(), inbound.Identity{UserID: "u9", Path: "/admin/x"})
	require.NoError(t, err)
	assert.False(t, d.Allowed, "no exempt prefixes configured")
	assert.Equal(t, reset, d.ResetAt)
}

func TestNewLimiter_InvalidPolicy(t *testing.T) {
	for i, p := range []Policy{
		{AnonymousLimit: 0, UserLimit: 1, PrivilegedLimit: 1, Window: time.Second},
		{AnonymousLimit: 1, UserLimit: 1, PrivilegedLimit: 1, Window: 0},
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := NewLimiter(new(MockCounterStore), p)
			assert.Error(t, err)
		})
	}
}
