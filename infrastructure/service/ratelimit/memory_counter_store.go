package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounterStore keeps counters in process. Only correct for a single
// instance.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

// NewMemoryCounterStore uses now as its clock, time.Now when nil.
func NewMemoryCounterStore(now func() time.Time) *MemoryCounterStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounterStore{
		entries: make(map[string]*counterEntry),
		now:     now,
	}
}

func (s *MemoryCounterStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}
	if window <= 0 {
		return 0, time.Time{}, fmt.Errorf("invalid window %s", window)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &counterEntry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.expiresAt, nil
}

// Cleanup drops expired entries.
func (s *MemoryCounterStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// Len returns the number of live or not yet evicted entries.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor runs Cleanup every interval until the returned func is called.
func (s *MemoryCounterStore) StartJanitor(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}
