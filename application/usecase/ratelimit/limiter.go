package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
)

const (
	DefaultAnonymousLimit  = 10
	DefaultUserLimit       = 100
	DefaultPrivilegedLimit = 1000
	DefaultWindow          = 60 * time.Second
)

var DefaultExemptPrefixes = []string{"/admin/", "/health", "/metrics"}

// Policy holds the per-tier limits shared by every tier's fixed window.
type Policy struct {
	AnonymousLimit  int64
	UserLimit       int64
	PrivilegedLimit int64
	Window          time.Duration
	ExemptPrefixes  []string
}

func DefaultPolicy() Policy {
	return Policy{
		AnonymousLimit:  DefaultAnonymousLimit,
		UserLimit:       DefaultUserLimit,
		PrivilegedLimit: DefaultPrivilegedLimit,
		Window:          DefaultWindow,
		ExemptPrefixes:  append([]string(nil), DefaultExemptPrefixes...),
	}
}

func (p Policy) Validate() error {
	if p.AnonymousLimit <= 0 || p.UserLimit <= 0 || p.PrivilegedLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if p.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

type Limiter struct {
	store  outbound.CounterStore
	policy Policy
}

func NewLimiter(store outbound.CounterStore, policy Policy) (*Limiter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, policy: policy}, nil
}

func (l *Limiter) Policy() Policy {
	return l.policy
}

// Admit counts the request against its identity's window. Exempt paths are
// not counted. A counter store error is returned with a zero decision; the
// caller decides whether to fail open.
func (l *Limiter) Admit(ctx context.Context, id inbound.Identity) (inbound.Decision, error) {
	if l.isExempt(id.Path) {
		return inbound.Decision{Allowed: true, Exempt: true}, nil
	}

	tier, key, limit := l.classify(id)
	decision := inbound.Decision{Tier: tier, Key: key, Limit: limit}

	count, resetAt, err := l.store.IncrementAndGet(ctx, key, l.policy.Window)
	if err != nil {
		return decision, fmt.Errorf("rate limit counter %s: %w", key, err)
	}

	decision.ResetAt = resetAt
	if count > limit {
		decision.Allowed = false
		decision.Remaining = 0
		return decision, nil
	}
	decision.Allowed = true
	decision.Remaining = limit - count
	return decision, nil
}

func (l *Limiter) isExempt(path string) bool {
	for _, prefix := range l.policy.ExemptPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (l *Limiter) classify(id inbound.Identity) (inbound.Tier, string, int64) {
	if id.UserID == "" {
		return inbound.TierAnonymous, "ratelimit:ip:" + id.ClientIP, l.policy.AnonymousLimit
	}
	key := "ratelimit:user:" + id.UserID
	if id.Privileged {
		return inbound.TierPrivileged, key, l.policy.PrivilegedLimit
	}
	return inbound.TierAuthenticated, key, l.policy.UserLimit
}
