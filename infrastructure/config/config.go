package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	domainerror "github.com/vendora/vendora/domain/error"
)

type Config struct {
	ServiceName string
	Environment string

	ServerHost      string
	ServerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DBDriver          string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	BcryptCost     int

	RedisURL                 string
	RateLimitEnabled         bool
	RateLimitBackend         string
	RateLimitKeyPrefix       string
	RateLimitAnonymousLimit  int64
	RateLimitUserLimit       int64
	RateLimitPrivilegedLimit int64
	RateLimitWindow          time.Duration
	RateLimitExemptPaths     []string
	RateLimitJanitorInterval time.Duration

	LogLevel               string
	LogFormat              string
	LogCorrelationIDHeader string
	LogEnableRequestLog    bool

	MetricsEnabled bool
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

var (
	ErrMissingDatabaseURL      = errors.New("DATABASE_URL is required")
	ErrUnsupportedDBDriver     = errors.New("DB_DRIVER must be postgres or sqlite")
	ErrMissingJWTSecret        = errors.New("JWT_SECRET is required")
	ErrWeakJWTSecret           = errors.New("JWT_SECRET must be at least 16 characters")
	ErrInvalidDuration         = errors.New("invalid duration")
	ErrInvalidRateLimit        = errors.New("rate limits must be positive")
	ErrUnsupportedLimitBackend = errors.New("RATE_LIMIT_BACKEND must be redis or memory")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "vendora")
	v.SetDefault("ENV", "development")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "60s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("JWT_ISSUER", "vendora")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", "900")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_BACKEND", "redis")
	v.SetDefault("RATE_LIMIT_KEY_PREFIX", "")
	v.SetDefault("RATE_LIMIT_ANON_LIMIT", 10)
	v.SetDefault("RATE_LIMIT_USER_LIMIT", 100)
	v.SetDefault("RATE_LIMIT_ADMIN_LIMIT", 1000)
	v.SetDefault("RATE_LIMIT_WINDOW", "60")
	v.SetDefault("RATE_LIMIT_EXEMPT_PATHS", "/admin/,/health,/metrics")
	v.SetDefault("RATE_LIMIT_JANITOR_INTERVAL", "60")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID")
	v.SetDefault("LOG_ENABLE_REQUEST_LOG", true)

	v.SetDefault("METRICS_ENABLED", true)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase is Load for tools that only touch the database.
func LoadDatabase() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServiceName: v.GetString("SERVICE_NAME"),
		Environment: v.GetString("ENV"),

		ServerHost: v.GetString("SERVER_HOST"),
		ServerPort: v.GetString("SERVER_PORT"),

		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		DBAutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTIssuer:  v.GetString("JWT_ISSUER"),
		BcryptCost: v.GetInt("BCRYPT_COST"),

		RedisURL:                 v.GetString("REDIS_URL"),
		RateLimitEnabled:         v.GetBool("RATE_LIMIT_ENABLED"),
		RateLimitBackend:         strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
		RateLimitKeyPrefix:       v.GetString("RATE_LIMIT_KEY_PREFIX"),
		RateLimitAnonymousLimit:  v.GetInt64("RATE_LIMIT_ANON_LIMIT"),
		RateLimitUserLimit:       v.GetInt64("RATE_LIMIT_USER_LIMIT"),
		RateLimitPrivilegedLimit: v.GetInt64("RATE_LIMIT_ADMIN_LIMIT"),
		RateLimitExemptPaths:     splitList(v.GetString("RATE_LIMIT_EXEMPT_PATHS")),

		LogLevel:               v.GetString("LOG_LEVEL"),
		LogFormat:              v.GetString("LOG_FORMAT"),
		LogCorrelationIDHeader: v.GetString("LOG_CORRELATION_ID_HEADER"),
		LogEnableRequestLog:    v.GetBool("LOG_ENABLE_REQUEST_LOG"),

		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
	}

	durations := []struct {
		key  string
		dest *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
		{"DB_CONN_MAX_LIFETIME", &cfg.DBConnMaxLifetime},
		{"JWT_ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL},
		{"RATE_LIMIT_WINDOW", &cfg.RateLimitWindow},
		{"RATE_LIMIT_JANITOR_INTERVAL", &cfg.RateLimitJanitorInterval},
	}
	for _, d := range durations {
		parsed, err := parseDuration(v.GetString(d.key))
		if err != nil {
			return nil, domainerror.ErrConfigurationError(d.key, ErrInvalidDuration)
		}
		*d.dest = parsed
	}
	return cfg, nil
}

func (c *Config) validateDatabase() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return domainerror.ErrConfigurationError("DB_DRIVER", ErrUnsupportedDBDriver)
	}
	if c.DatabaseURL == "" {
		return domainerror.ErrConfigurationError("DATABASE_URL", ErrMissingDatabaseURL)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return domainerror.ErrConfigurationError("JWT_SECRET", ErrMissingJWTSecret)
	}
	if len(c.JWTSecret) < 16 {
		return domainerror.ErrConfigurationError("JWT_SECRET", ErrWeakJWTSecret)
	}
	if c.AccessTokenTTL <= 0 {
		return domainerror.ErrConfigurationError("JWT_ACCESS_TOKEN_TTL", ErrInvalidDuration)
	}
	if c.RateLimitWindow <= 0 {
		return domainerror.ErrConfigurationError("RATE_LIMIT_WINDOW", ErrInvalidDuration)
	}
	if c.RateLimitEnabled {
		if c.RateLimitAnonymousLimit <= 0 || c.RateLimitUserLimit <= 0 || c.RateLimitPrivilegedLimit <= 0 {
			return domainerror.ErrConfigurationError("RATE_LIMIT_*_LIMIT", ErrInvalidRateLimit)
		}
		if c.RateLimitBackend != "redis" && c.RateLimitBackend != "memory" {
			return domainerror.ErrConfigurationError("RATE_LIMIT_BACKEND", ErrUnsupportedLimitBackend)
		}
	}
	return nil
}

// parseDuration accepts plain seconds ("900") or a Go duration ("15m").
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
