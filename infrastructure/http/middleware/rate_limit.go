package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/infrastructure/http/response"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

// RateLimitMetrics counts limiter outcomes.
type RateLimitMetrics interface {
	RateLimitDecision(tier string, allowed bool)
}

type RateLimitMiddleware struct {
	limiter inbound.RateLimiter
	logger  logger.Logger
	metrics RateLimitMetrics
	now     func() time.Time
}

func NewRateLimitMiddleware(limiter inbound.RateLimiter, logger logger.Logger, metrics RateLimitMetrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// RateLimit admits or rejects the request before it reaches any handler.
// It must run after OptionalAuth so the caller's tier is known.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := inbound.Identity{
			ClientIP: ClientIP(r),
			Path:     r.URL.Path,
		}
		if claims := GetUserClaims(ctx); claims != nil {
			id.UserID = claims.UserID
			id.Privileged = entity.IsPrivilegedRole(claims.Role)
		}

		decision, err := m.limiter.Admit(ctx, id)
		if err != nil {
			// Counter store errors fail open.
			m.logger.Error(ctx, "Rate limit check failed, admitting request", err, map[string]interface{}{
				"ip":   id.ClientIP,
				"key":  decision.Key,
				"path": id.Path,
			})
			next.ServeHTTP(w, r)
			return
		}
		if decision.Exempt {
			next.ServeHTTP(w, r)
			return
		}

		if m.metrics != nil {
			m.metrics.RateLimitDecision(string(decision.Tier), decision.Allowed)
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "MEDIUM", map[string]interface{}{
				"ip":        id.ClientIP,
				"user_id":   id.UserID,
				"tier":      string(decision.Tier),
				"path":      r.URL.Path,
				"key":       decision.Key,
				"userAgent": r.UserAgent(),
			})

			retryAfter := decision.RetryAfter(m.now())
			seconds := int64((retryAfter + time.Second - 1) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
			response.FromError(w, domainerror.ErrRateLimitExceeded(decision.Limit, retryWindow(decision, m.now())))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryWindow(d inbound.Decision, now time.Time) string {
	return d.RetryAfter(now).Round(time.Second).String()
}

// ClientIP is the first X-Forwarded-For entry, else the peer address
// without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
