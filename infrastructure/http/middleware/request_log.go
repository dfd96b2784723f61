package middleware

import (
	"net/http"
	"time"

	"github.com/vendora/vendora/infrastructure/service/logger"
)

// RequestLog writes one structured line per request.
func RequestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          ClientIP(r),
			}
			if claims := GetUserClaims(r.Context()); claims != nil {
				fields["user_id"] = claims.UserID
			}
			if rw.statusCode >= http.StatusInternalServerError {
				log.Warn(r.Context(), "HTTP request failed", fields)
				return
			}
			log.Info(r.Context(), "HTTP request", fields)
		})
	}
}
