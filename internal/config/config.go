package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	SessionTTL time.Duration
}

type RateLimitConfig struct {
	// Generic policy applied to non-auth endpoints. The stricter auth
	// policy (5 req/60s) is fixed in the middleware.
	GenericMaxRequests int
	GenericWindow      time.Duration
	// Edge burst limiter, per client IP, whole router.
	BurstPerMinute int
}

type EmailConfig struct {
	AWSRegion          string
	FromAddress        string
	SiteBaseURL        string
	UnsubscribeSecret  string
	ConfirmTokenExpiry time.Duration
	CleanupInterval    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "tombola"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			// Sized for a few hundred families on a shared postgres.
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			SessionTTL: getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			GenericMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 60),
			GenericWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			BurstPerMinute:     getEnvAsInt("RATE_LIMIT_BURST_PER_MINUTE", 300),
		},
		Email: EmailConfig{
			AWSRegion:          getEnv("AWS_REGION", "eu-west-3"),
			FromAddress:        getEnv("EMAIL_FROM", "ape@example.org"),
			SiteBaseURL:        getEnv("SITE_BASE_URL", "http://localhost:3000"),
			UnsubscribeSecret:  getEnv("UNSUBSCRIBE_SECRET", ""),
			ConfirmTokenExpiry: getEnvAsDuration("NEWSLETTER_CONFIRM_EXPIRY", 48*time.Hour),
			CleanupInterval:    getEnvAsDuration("NEWSLETTER_CLEANUP_INTERVAL", 1*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if env == "production" && len(cfg.Email.UnsubscribeSecret) < 32 {
		return nil, fmt.Errorf("UNSUBSCRIBE_SECRET must be at least 32 characters in production")
	}

	return cfg, nil
}

// RateLimitEnabled reports whether the storage-backed limiter is active.
// It is deliberately off outside production to ease local testing.
func (c *Config) RateLimitEnabled() bool {
	return c.Server.Env == "production"
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
