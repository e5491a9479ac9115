// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for pagination links and CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// CORSOrigins lists origins allowed to call the API cross-origin.
	CORSOrigins []string

	// TrustedProxies lists CIDRs whose X-Forwarded-For / X-Real-IP are honored.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// Upload holds recipe image settings.
	Upload UploadConfig

	// Pagination holds list endpoint page sizing.
	Pagination PaginationConfig
}

// DatabaseConfig holds MariaDB connection parameters. If DATABASE_URL is set,
// it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords. MultiStatements is enabled because migration
// files contain several statements each.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SecretKey keys the HMAC used to store auth tokens in Redis. Must be
	// 32+ characters in production.
	SecretKey string

	// TokenTTL is how long an API token stays valid.
	TokenTTL time.Duration

	// RateLimitRPS and RateLimitBurst bound login and registration attempts per IP.
	RateLimitRPS   float64
	RateLimitBurst int
}

// UploadConfig holds recipe image settings.
type UploadConfig struct {
	// MaxSize is the maximum decoded image size in bytes.
	MaxSize int64

	// MaxDimension is the longest edge in pixels; larger images are downscaled.
	MaxDimension int

	// MediaPath is the root directory for media file storage.
	MediaPath string

	// MediaURL is the public URL prefix media files are served under.
	MediaURL string
}

// PaginationConfig controls page-number pagination on list endpoints.
type PaginationConfig struct {
	// PageSize is used when the client sends no "limit" parameter.
	PageSize int

	// MaxPageSize caps the "limit" parameter.
	MaxPageSize int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "foodgram"),
			Password:        getEnv("DB_PASSWORD", "foodgram"),
			Name:            getEnv("DB_NAME", "foodgram"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:      getEnv("SECRET_KEY", ""),
			TokenTTL:       getEnvDuration("TOKEN_TTL", 720*time.Hour),
			RateLimitRPS:   getEnvFloat("AUTH_RATE_LIMIT_RPS", 0.2),
			RateLimitBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 10),
		},

		Upload: UploadConfig{
			MaxSize:      getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
			MaxDimension: getEnvInt("MAX_IMAGE_DIMENSION", 1600),
			MediaPath:    getEnv("MEDIA_PATH", "./media"),
			MediaURL:     strings.TrimRight(getEnv("MEDIA_URL", "/media"), "/"),
		},

		Pagination: PaginationConfig{
			PageSize:    getEnvInt("PAGE_SIZE", 6),
			MaxPageSize: getEnvInt("MAX_PAGE_SIZE", 100),
		},
	}

	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	if cfg.Pagination.PageSize < 1 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.Pagination.PageSize)
	}
	if cfg.Pagination.MaxPageSize < cfg.Pagination.PageSize {
		cfg.Pagination.MaxPageSize = cfg.Pagination.PageSize
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
// Empty entries are dropped.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
