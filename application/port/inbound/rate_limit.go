package inbound

import (
	"context"
	"time"
)

type Tier string

const (
	TierAnonymous     Tier = "anonymous"
	TierAuthenticated Tier = "authenticated"
	TierPrivileged    Tier = "privileged"
)

// Identity is what the limiter needs to know about a request.
type Identity struct {
	UserID     string
	Privileged bool
	ClientIP   string
	Path       string
}

type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
	Exempt    bool
	Tier      Tier
	Key       string
}

// RetryAfter is the time left until the window resets, never negative.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.IsZero() || !d.ResetAt.After(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

type RateLimiter interface {
	Admit(ctx context.Context, id Identity) (Decision, error)
}
