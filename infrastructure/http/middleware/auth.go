package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/infrastructure/http/response"
	"github.com/vendora/vendora/infrastructure/service/jwt"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

type authContextKey struct{}

type AuthMiddleware struct {
	tokenService outbound.TokenService
}

func NewAuthMiddleware(tokenService outbound.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// OptionalAuth resolves the caller when a valid bearer token is present and
// passes anonymous requests through untouched. It runs ahead of the rate
// limiter so the limiter can pick the caller's tier.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.tokenService.ValidateAccessToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetUserClaims(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(token)
		if err != nil {
			response.FromError(w, tokenError(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

// RequireAdmin ensures that the user has a privileged role
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			response.Unauthorized(w, "User not authenticated")
			return
		}
		if !entity.IsPrivilegedRole(claims.Role) {
			response.FromError(w, domainerror.ErrUnauthorizedAccess("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserClaims retrieves user claims from context
func GetUserClaims(ctx context.Context) *outbound.TokenClaims {
	if claims, ok := ctx.Value(authContextKey{}).(*outbound.TokenClaims); ok {
		return claims
	}
	return nil
}

func withClaims(ctx context.Context, claims *outbound.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, authContextKey{}, claims)
	return logger.WithUserID(ctx, claims.UserID)
}

func tokenError(err error) *domainerror.AppError {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domainerror.ErrTokenExpired()
	}
	return domainerror.ErrInvalidToken("Invalid or expired token")
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
