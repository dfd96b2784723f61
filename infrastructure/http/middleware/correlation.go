package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendora/vendora/infrastructure/service/logger"
)

const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID ensures every request carries a correlation ID in its
// context and echoes it on the response.
func CorrelationID(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = CorrelationIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(header)
			if cid == "" || len(cid) > 128 {
				cid = uuid.NewString()
			}
			w.Header().Set(header, cid)
			ctx := logger.WithCorrelationID(r.Context(), cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
