package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/infrastructure/http/handler"
	"github.com/vendora/vendora/infrastructure/http/middleware"
	"github.com/vendora/vendora/infrastructure/http/response"
	"github.com/vendora/vendora/infrastructure/service/logger"
	"github.com/vendora/vendora/infrastructure/service/metrics"
)

type Dependencies struct {
	Auth         inbound.AuthUseCase
	Products     inbound.ProductUseCase
	Audit        inbound.AuditQuery
	Limiter      inbound.RateLimiter
	TokenService outbound.TokenService
	DB           handler.Pinger
	Metrics      *metrics.Metrics
	Logger       logger.Logger

	ServiceName         string
	CorrelationIDHeader string
	EnableRequestLog    bool
}

// New builds the HTTP surface. Request flow: correlation id, metrics,
// optional authentication, rate limiting, then the route's own guard.
// Unmatched paths and methods pass the same chain so they are counted too.
func New(deps Dependencies) *mux.Router {
	r := mux.NewRouter()
	auth := middleware.NewAuthMiddleware(deps.TokenService)

	chain := []mux.MiddlewareFunc{middleware.CorrelationID(deps.CorrelationIDHeader)}
	if deps.EnableRequestLog {
		chain = append(chain, middleware.RequestLog(deps.Logger))
	}
	if deps.Metrics != nil {
		chain = append(chain, middleware.Metrics(deps.Metrics))
	}
	chain = append(chain, auth.OptionalAuth)
	if deps.Limiter != nil {
		var decisions middleware.RateLimitMetrics
		if deps.Metrics != nil {
			decisions = deps.Metrics
		}
		chain = append(chain, middleware.NewRateLimitMiddleware(deps.Limiter, deps.Logger, decisions).RateLimit)
	}

	r.Use(chain...)
	r.NotFoundHandler = wrap(http.HandlerFunc(notFound), chain)
	r.MethodNotAllowedHandler = wrap(http.HandlerFunc(methodNotAllowed), chain)

	health := handler.NewHealthHandler(deps.DB, deps.ServiceName)
	r.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Logger)
	r.HandleFunc("/v1/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/v1/auth/me", auth.RequireAuth(authHandler.Me)).Methods(http.MethodGet)

	handler.NewProductHandler(deps.Products, deps.Logger).RegisterRoutes(r, auth)
	handler.NewChangeLogHandler(deps.Audit, deps.Logger).RegisterRoutes(r, auth)

	return r
}

func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i].Middleware(h)
	}
	return h
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.NotFound(w, "Route not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
