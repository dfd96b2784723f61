package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/application/usecase"
	"github.com/vendora/vendora/application/usecase/audit"
	"github.com/vendora/vendora/application/usecase/product"
	limiterusecase "github.com/vendora/vendora/application/usecase/ratelimit"
	"github.com/vendora/vendora/domain/entity"
	"github.com/vendora/vendora/infrastructure/adapter/persistence"
	"github.com/vendora/vendora/infrastructure/http/router"
	"github.com/vendora/vendora/infrastructure/service/jwt"
	"github.com/vendora/vendora/infrastructure/service/logger"
	"github.com/vendora/vendora/infrastructure/service/metrics"
	"github.com/vendora/vendora/infrastructure/service/password"
	"github.com/vendora/vendora/infrastructure/service/ratelimit"
)

const (
	adminID       = "11111111-1111-4111-8111-111111111111"
	userID        = "22222222-2222-4222-8222-222222222222"
	adminPassword = "admin-password"
	userPassword  = "user-password"
)

type server struct {
	router  *mux.Router
	tokens  *jwt.JWTService
	metrics *metrics.Metrics
}

type failingStore struct{}

func (failingStore) IncrementAndGet(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("redis: connection refused")
}

func newServer(t *testing.T, policy limiterusecase.Policy, store outbound.CounterStore) *server {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := persistence.Open(ctx, persistence.DBConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "vendora.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = persistence.NewMigrator(db, dialect, logger.NewNopLogger()).Up(ctx)
	require.NoError(t, err)

	passwords := password.NewBcryptPasswordService(4)
	users := persistence.NewUserRepository(db, dialect)
	for _, u := range []struct{ id, email, pass, role string }{
		{adminID, "admin@vendora.io", adminPassword, entity.RoleAdmin},
		{userID, "user@vendora.io", userPassword, entity.RoleUser},
	} {
		hash, err := passwords.HashPassword(u.pass)
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, entity.NewUser(u.id, u.email, hash, u.role)))
	}

	tokens, err := jwt.NewJWTService(jwt.Config{
		Secret:         "router-test-secret-0123456789",
		Issuer:         "vendora",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	m := metrics.New()
	products := persistence.NewProductRepository(db, dialect)
	logs := persistence.NewChangeLogRepository(db, dialect)

	limiter, err := limiterusecase.NewLimiter(store, policy)
	require.NoError(t, err)

	r := router.New(router.Dependencies{
		Auth: usecase.NewLoginUseCase(users, tokens, passwords),
		Products: product.NewProductUseCase(
			products,
			logs,
			persistence.NewSQLTransactor(db),
			audit.NewRecorder(logs, m),
			m,
		),
		Audit:        audit.NewQueryUseCase(logs),
		Limiter:      limiter,
		TokenService: tokens,
		DB:           db,
		Metrics:      m,
		Logger:       logger.NewNopLogger(),
		ServiceName:  "vendora-test",
	})
	return &server{router: r, tokens: tokens, metrics: m}
}

func generousPolicy() limiterusecase.Policy {
	p := limiterusecase.DefaultPolicy()
	p.AnonymousLimit = 1000
	p.UserLimit = 1000
	p.PrivilegedLimit = 1000
	return p
}

func (s *server) token(t *testing.T, id, role string) string {
	t.Helper()
	tok, err := s.tokens.GenerateAccessToken(outbound.TokenClaims{UserID: id, Email: id + "@vendora.io", Role: role})
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:51234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type productBody struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	FinalPrice float64 `json:"final_price"`
	IsActive   bool    `json:"is_active"`
	CreatedBy  *string `json:"created_by"`
}

type recordBody struct {
	Action  string                     `json:"action"`
	Actor   string                     `json:"actor"`
	Changes map[string]json.RawMessage `json:"changes"`
}

func createProduct(t *testing.T, s *server, token, ssn string) productBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"title":       "Desk " + ssn,
		"description": "Oak desk",
		"price":       200,
		"discount":    10,
		"ssn":         ssn,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p productBody
	decode(t, rec, &p)
	return p
}

func TestHealthIsExemptFromRateLimiting(t *testing.T) {
	s := newServer(t, limiterusecase.DefaultPolicy(), ratelimit.NewMemoryCounterStore(nil))

	for i := 0; i < 15; i++ {
		rec := s.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newServer(t, generousPolicy(), ratelimit.NewMemoryCounterStore(nil))

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "admin@vendora.io",
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	decode(t, rec, &login)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, 60, login.ExpiresIn)

	rec = s.do(t, http.MethodGet, "/v1/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	decode(t, rec, &me)
	assert.Equal(t, adminID, me.ID)
	assert.Equal(t, entity.RoleAdmin, me.Role)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "admin@vendora.io",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductPermissions(t *testing.T) {
	s := newServer(t, generousPolicy(), ratelimit.NewMemoryCounterStore(nil))
	admin := s.token(t, adminID, entity.RoleAdmin)
	user := s.token(t, userID, entity.RoleUser)

	p := createProduct(t, s, admin, "SSN-1")
	assert.Equal(t, 180.0, p.FinalPrice)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, adminID, *p.CreatedBy)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/products", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, "/api/v1/products/"+p.ID, user, map[string]interface{}{"title": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/change-logs", user, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/products/"+p.ID, user, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", user, nil).Code)
}

func TestUpdateDeleteAndHistory(t *testing.T) {
	s := newServer(t, generousPolicy(), ratelimit.NewMemoryCounterStore(nil))
	admin := s.token(t, adminID, entity.RoleAdmin)
	user := s.token(t, userID, entity.RoleUser)

	p := createProduct(t, s, admin, "SSN-1")

	rec := s.do(t, http.MethodPatch, "/api/v1/products/"+p.ID, admin, map[string]interface{}{"price": 250})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/v1/products/"+p.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deleted productBody
	decode(t, rec, &deleted)
	assert.False(t, deleted.IsActive)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/products/"+p.ID, user, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/products/"+p.ID, admin, nil).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/"+p.ID+"/history", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []recordBody
	decode(t, rec, &history)
	require.Len(t, history, 3)
	assert.Equal(t, "DISABLED", history[0].Action)
	assert.Equal(t, "UPDATED", history[1].Action)
	assert.JSONEq(t, `{"old":"200.00","new":"250.00"}`, string(history[1].Changes["price"]))
	assert.Equal(t, "CREATED", history[2].Action)
	assert.Equal(t, adminID, history[2].Actor)

	rec = s.do(t, http.MethodGet, "/api/v1/change-logs?action=disabled", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Records []recordBody `json:"records"`
	}
	decode(t, rec, &page)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "DISABLED", page.Records[0].Action)
}

func TestBulkCreateConflict(t *testing.T) {
	s := newServer(t, generousPolicy(), ratelimit.NewMemoryCounterStore(nil))
	admin := s.token(t, adminID, entity.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/v1/products/bulk", admin, []map[string]interface{}{
		{"title": "A", "price": 1, "ssn": "DUP"},
		{"title": "B", "price": 2, "ssn": "DUP"},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var errData struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	}
	decode(t, rec, &errData)
	assert.Equal(t, "CONFLICT_8002", errData.Code)
	assert.Contains(t, errData.Details, "DUP")

	rec = s.do(t, http.MethodPost, "/api/v1/products/bulk", admin, map[string]interface{}{
		"products": []map[string]interface{}{
			{"title": "A", "price": 1, "ssn": "A-1"},
			{"title": "B", "price": 2, "ssn": "B-1"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created []productBody
	decode(t, rec, &created)
	assert.Len(t, created, 2)

	rec = s.do(t, http.MethodPost, "/api/v1/products/bulk", admin, []map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndExport(t *testing.T) {
	s := newServer(t, generousPolicy(), ratelimit.NewMemoryCounterStore(nil))
	admin := s.token(t, adminID, entity.RoleAdmin)
	createProduct(t, s, admin, "SSN-1")
	createProduct(t, s, admin, "SSN-2")

	rec := s.do(t, http.MethodGet, "/api/v1/products/search", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/search?q=SSN-2", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Products   []productBody `json:"products"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Pagination.Total)

	rec = s.do(t, http.MethodGet, "/api/v1/products?price_min=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Title,Description"))

	rec = s.do(t, http.MethodGet, "/api/v1/products/export?ordering=ssn", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestAnonymousRateLimit(t *testing.T) {
	policy := limiterusecase.DefaultPolicy()
	policy.AnonymousLimit = 2
	s := newServer(t, policy, ratelimit.NewMemoryCounterStore(nil))

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	// Authenticated callers have their own bucket.
	user := s.token(t, userID, entity.RoleUser)
	rec = s.do(t, http.MethodGet, "/api/v1/products", user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))

	admin := s.token(t, adminID, entity.RoleAdmin)
	rec = s.do(t, http.MethodGet, "/api/v1/products", admin, nil)
	assert.Equal(t, "1000", rec.Header().Get("X-RateLimit-Limit"))

	body := s.do(t, http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, body, `vendora_rate_limit_decisions_total{allowed="false",tier="anonymous"} 1`)
}

func TestUnmatchedRequestsAreCounted(t *testing.T) {
	policy := limiterusecase.DefaultPolicy()
	policy.AnonymousLimit = 2
	s := newServer(t, policy, ratelimit.NewMemoryCounterStore(nil))

	rec := s.do(t, http.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = s.do(t, http.MethodDelete, "/v1/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	s := newServer(t, limiterusecase.DefaultPolicy(), failingStore{})
	admin := s.token(t, adminID, entity.RoleAdmin)

	rec := s.do(t, http.MethodGet, "/api/v1/products", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	s := newServer(t, generousPolicy(), ratelimit.NewMemoryCounterStore(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))

	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
