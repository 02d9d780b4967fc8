package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/logger"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Environment string
	Port        string
	DBURL       string

	AdminUsername     string
	AdminPasswordHash string
	AdminTokenSecret  string
	AdminTokenTTLMins int
	UserJWTSecret     string

	RatingPolicy domain.Policy

	RedisURL          string
	StatsCacheTTLSecs int

	CatalogURL         string
	CatalogAPIKey      string
	CatalogTimeoutSecs int

	RateLimit      string
	LoginRateLimit string

	MigrateOnStart bool

	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		DBURL:              os.Getenv("DB_URL"),
		AdminUsername:      os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash:  os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminTokenSecret:   os.Getenv("ADMIN_TOKEN_SECRET"),
		AdminTokenTTLMins:  getEnvInt("ADMIN_TOKEN_TTL_MINS", 60),
		UserJWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
		RedisURL:           os.Getenv("REDIS_URL"),
		StatsCacheTTLSecs:  getEnvInt("STATS_CACHE_TTL_SECS", 30),
		CatalogURL:         os.Getenv("CATALOG_URL"),
		CatalogAPIKey:      os.Getenv("CATALOG_API_KEY"),
		CatalogTimeoutSecs: getEnvInt("CATALOG_TIMEOUT_SECS", 5),
		RateLimit:          getEnv("RATE_LIMIT", "30-M"),
		LoginRateLimit:     getEnv("LOGIN_RATE_LIMIT", "5-M"),
		MigrateOnStart:     getEnvBool("MIGRATE_ON_START", false),
		ReadTimeoutSecs:    getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:   getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:    getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:      getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:      getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:  getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:   getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
	}

	policy, err := domain.ParsePolicy(os.Getenv("RATING_POLICY"))
	if err != nil {
		return Config{}, fmt.Errorf("RATING_POLICY: %w", err)
	}
	cfg.RatingPolicy = policy

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.AdminUsername == "" {
		return Config{}, fmt.Errorf("ADMIN_USERNAME is required")
	}
	if !strings.HasPrefix(cfg.AdminPasswordHash, "$2") {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash")
	}
	if len(cfg.AdminTokenSecret) < 32 {
		return Config{}, fmt.Errorf("ADMIN_TOKEN_SECRET must be at least 32 bytes")
	}
	if cfg.AdminTokenTTLMins <= 0 {
		return Config{}, fmt.Errorf("ADMIN_TOKEN_TTL_MINS must be positive")
	}
	if cfg.StatsCacheTTLSecs < 0 {
		return Config{}, fmt.Errorf("STATS_CACHE_TTL_SECS must be non-negative")
	}
	if cfg.CatalogURL != "" && cfg.CatalogAPIKey == "" {
		return Config{}, fmt.Errorf("CATALOG_API_KEY is required when CATALOG_URL is set")
	}
	if cfg.CatalogTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}

	return cfg, nil
}

// LoadLogger reads LOG_LEVEL, LOG_FORMAT and LOG_OUTPUT on top of the logger
// defaults. It needs none of the settings Load requires, so every command can
// log before the rest of the configuration is validated.
func LoadLogger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = getEnv("LOG_LEVEL", cfg.Level)
	cfg.Format = getEnv("LOG_FORMAT", cfg.Format)
	cfg.Output = getEnv("LOG_OUTPUT", cfg.Output)
	return cfg
}

// Production reports whether the service runs in the production environment.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
