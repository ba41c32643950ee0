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

// LoadFromEnv builds the configuration from environment variables only.
// Used by containers that ship without a config file.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	cfg.App.Name = getEnv("APP_NAME", "")
	cfg.App.Environment = getEnv("APP_ENV", getEnv("ENV", ""))
	cfg.App.Version = getEnv("APP_VERSION", "")
	cfg.Database.DSN = strings.TrimSpace(getEnv("DATABASE_URL", ""))
	cfg.Database.AutoMigrate = parseBoolEnv("DB_AUTO_MIGRATE", "true")
	cfg.Redis.Address = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "")
	cfg.Auth.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	cfg.Gateway.BaseURL = getEnv("GATEWAY_BASE_URL", "")
	cfg.Gateway.Merchant = getEnv("GATEWAY_MERCHANT", "")
	cfg.Gateway.Secret = getEnv("GATEWAY_SECRET", "")

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.AllowedOrigins = append(cfg.HTTP.AllowedOrigins, o)
			}
		}
	}

	var err error
	if cfg.HTTP.Port, err = parseIntEnv("PORT", "8080"); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.Policy.OwnerApprovalTimeout, err = parseDurationEnv("REFUND_OWNER_TIMEOUT", "5h"); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
