package outbound

import (
	"context"
	"time"
)

// CounterStore keeps fixed-window request counters shared by all service
// instances.
type CounterStore interface {
	// IncrementAndGet adds one to key and returns the new count and the end
	// of the current window. The first hit of a window creates the entry
	// with an expiry of now+window; later hits never extend it.
	IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}
