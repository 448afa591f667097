package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends for the token revocation denylist.
const (
	RevocationStoreRedis  = "redis"
	RevocationStoreMemory = "memory"
)

// ErrMissingJWTSecret is returned by Load when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	CORS     CORSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret  string
	BcryptCost int
	// Roles is the closed set of role names accepted at registration and in
	// tokens. Matching is exact, so the casing chosen here is the casing used
	// everywhere.
	Roles             []string
	DefaultRole       string
	AdminRole         string
	RevocationEnabled bool
	// RevocationStore selects the denylist backend. The memory store is
	// process-local and suits single-instance deployments.
	RevocationStore string
}

// CORSConfig configures the cross-origin response headers.
type CORSConfig struct {
	AllowedOrigin string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "scorecard-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("AUTH_JWT_SECRET"),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 10),
			Roles:             getEnvAsList("AUTH_ROLES", []string{"ADMIN", "USER"}),
			DefaultRole:       getEnv("AUTH_DEFAULT_ROLE", "USER"),
			AdminRole:         getEnv("AUTH_ADMIN_ROLE", "ADMIN"),
			RevocationEnabled: getEnvAsBool("AUTH_REVOCATION_ENABLED", false),
			RevocationStore:   strings.ToLower(getEnv("AUTH_REVOCATION_STORE", RevocationStoreRedis)),
		},
		CORS: CORSConfig{
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		},
	}

	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the auth settings are usable.
func (a AuthConfig) Validate() error {
	if strings.TrimSpace(a.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if len(a.Roles) == 0 {
		return errors.New("AUTH_ROLES must list at least one role")
	}
	if !contains(a.Roles, a.DefaultRole) {
		return fmt.Errorf("AUTH_DEFAULT_ROLE %q is not listed in AUTH_ROLES", a.DefaultRole)
	}
	if !contains(a.Roles, a.AdminRole) {
		return fmt.Errorf("AUTH_ADMIN_ROLE %q is not listed in AUTH_ROLES", a.AdminRole)
	}
	if a.RevocationEnabled && a.RevocationStore != RevocationStoreRedis && a.RevocationStore != RevocationStoreMemory {
		return fmt.Errorf("AUTH_REVOCATION_STORE %q must be %q or %q", a.RevocationStore, RevocationStoreRedis, RevocationStoreMemory)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
