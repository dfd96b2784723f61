package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/application/usecase"
	"github.com/vendora/vendora/application/usecase/audit"
	"github.com/vendora/vendora/application/usecase/product"
	limiterusecase "github.com/vendora/vendora/application/usecase/ratelimit"
	"github.com/vendora/vendora/infrastructure/adapter/persistence"
	"github.com/vendora/vendora/infrastructure/config"
	"github.com/vendora/vendora/infrastructure/http/middleware"
	"github.com/vendora/vendora/infrastructure/http/router"
	"github.com/vendora/vendora/infrastructure/service/jwt"
	"github.com/vendora/vendora/infrastructure/service/logger"
	"github.com/vendora/vendora/infrastructure/service/metrics"
	"github.com/vendora/vendora/infrastructure/service/password"
	"github.com/vendora/vendora/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrusLogger := logger.NewLogrus(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
	})
	structuredLogger := logger.FromLogrus(logrusLogger, cfg.ServiceName)
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":       cfg.Environment,
		"db_driver": cfg.DBDriver,
	})

	db, dialect, err := persistence.Open(ctx, persistence.DBConfig{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{
			"driver": cfg.DBDriver,
		})
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	structuredLogger.Info(ctx, "Database connection established", map[string]interface{}{
		"driver": cfg.DBDriver,
	})

	if cfg.DBAutoMigrate {
		applied, err := persistence.NewMigrator(db, dialect, structuredLogger).Up(ctx)
		if err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		structuredLogger.Info(ctx, "Migrations applied", map[string]interface{}{"count": applied})
	}

	store, closeStore, err := ratelimit.NewCounterStore(ratelimit.RateLimitConfig{
		Enabled:         cfg.RateLimitEnabled,
		Backend:         cfg.RateLimitBackend,
		RedisURL:        cfg.RedisURL,
		KeyPrefix:       cfg.RateLimitKeyPrefix,
		JanitorInterval: cfg.RateLimitJanitorInterval,
	}, logrusLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize rate limit counter store", err, map[string]interface{}{
			"backend": cfg.RateLimitBackend,
		})
		log.Fatalf("Failed to initialize rate limiting: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			structuredLogger.Error(ctx, "Failed to close counter store", err, nil)
		}
	}()

	var limiter *limiterusecase.Limiter
	if cfg.RateLimitEnabled {
		limiter, err = limiterusecase.NewLimiter(store, limiterusecase.Policy{
			AnonymousLimit:  cfg.RateLimitAnonymousLimit,
			UserLimit:       cfg.RateLimitUserLimit,
			PrivilegedLimit: cfg.RateLimitPrivilegedLimit,
			Window:          cfg.RateLimitWindow,
			ExemptPrefixes:  cfg.RateLimitExemptPaths,
		})
		if err != nil {
			log.Fatalf("Invalid rate limit policy: %v", err)
		}
	}

	tokenService, err := jwt.NewJWTService(jwt.Config{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New()
	}

	userRepo := persistence.NewUserRepository(db, dialect)
	productRepo := persistence.NewProductRepository(db, dialect)
	changeLogRepo := persistence.NewChangeLogRepository(db, dialect)
	transactor := persistence.NewSQLTransactor(db)

	var mutationMetrics outbound.MutationMetrics = outbound.NoopMetrics{}
	if appMetrics != nil {
		mutationMetrics = appMetrics
	}
	recorder := audit.NewRecorder(changeLogRepo, mutationMetrics)

	deps := router.Dependencies{
		Auth:                usecase.NewLoginUseCase(userRepo, tokenService, passwordService),
		Products:            product.NewProductUseCase(productRepo, changeLogRepo, transactor, recorder, mutationMetrics),
		Audit:               audit.NewQueryUseCase(changeLogRepo),
		TokenService:        tokenService,
		DB:                  db,
		Metrics:             appMetrics,
		Logger:              structuredLogger,
		ServiceName:         cfg.ServiceName,
		CorrelationIDHeader: cfg.LogCorrelationIDHeader,
		EnableRequestLog:    cfg.LogEnableRequestLog,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}
	if deps.CorrelationIDHeader == "" {
		deps.CorrelationIDHeader = middleware.CorrelationIDHeader
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"addr":               cfg.Addr(),
			"rate_limit_enabled": cfg.RateLimitEnabled,
			"rate_limit_backend": cfg.RateLimitBackend,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"addr": cfg.Addr(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
