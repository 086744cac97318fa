package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret     = "change-me"
	defaultAdminPassword = "admin123"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	AppEnv     string
	LogLevel   string

	DBDriver    string
	DatabaseDSN string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret              string
	TokenTTL               time.Duration
	BootstrapAdminPassword string
	UserCacheTTL           time.Duration

	GeminiAPIKey      string
	GeminiModel       string
	ChatTimeout       time.Duration
	ChatSessionTTL    time.Duration
	ChatMaxToolRounds int

	CORSOrigins []string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults. Values from
// .env (or ../.env) fill in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8000"),
		AppEnv:                 getEnv("APP_ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DBDriver:               strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseDSN:            getEnv("DATABASE_DSN", "helphub.db"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		JWTSecret:              getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 30*time.Minute),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", defaultAdminPassword),
		UserCacheTTL:           getEnvDuration("USER_CACHE_TTL", 30*time.Second),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		ChatTimeout:            getEnvDuration("CHAT_TIMEOUT", 60*time.Second),
		ChatSessionTTL:         getEnvDuration("CHAT_SESSION_TTL", 24*time.Hour),
		ChatMaxToolRounds:      getEnvInt("CHAT_MAX_TOOL_ROUNDS", 5),
		CORSOrigins:            getEnvList("CORS_ORIGINS", []string{"*"}),
		SwaggerHost:            os.Getenv("SWAGGER_HOST"),
	}
}

// IsProduction reports whether APP_ENV selects production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Validate rejects settings that must not reach a real deployment.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q is not one of sqlite, mysql, postgres", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.ChatTimeout <= 0 {
		return errors.New("CHAT_TIMEOUT must be positive")
	}
	if c.ChatMaxToolRounds < 1 {
		return errors.New("CHAT_MAX_TOOL_ROUNDS must be at least 1")
	}
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.BootstrapAdminPassword == defaultAdminPassword {
			return errors.New("BOOTSTRAP_ADMIN_PASSWORD must be set in production")
		}
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
