package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"villastay/internal/domain"
)

const (
	defaultAppEnv            = "dev"
	defaultPort              = "8080"
	defaultDatabaseURL       = "villastay.db"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTTTL            = "24h"
	defaultRefMaxAttempts    = "5"
	defaultSplitPaymentDueIn = "48h"
	defaultStrictRange       = "true"
	defaultLookupPerMinute   = "20"
	defaultMaxStayNights     = "90"
)

type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	JWTSecret           string
	JWTTTL              time.Duration
	BookingRefAttempts  int
	SplitPaymentDueIn   time.Duration
	CalendarStrictRange bool
	LookupRatePerMinute int
	MaxStayNights       int
	CORSAllowedOrigins  []string
}

// Load reads the configuration from the environment. Call godotenv.Load first
// to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = defaultAppEnv
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.CalendarStrictRange = parseBoolEnv("CALENDAR_STRICT_RANGE", defaultStrictRange)

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.SplitPaymentDueIn, err = parseDurationEnv("SPLIT_PAYMENT_DUE_IN", defaultSplitPaymentDueIn); err != nil {
		return nil, err
	}
	if cfg.BookingRefAttempts, err = parseIntEnv("BOOKING_REF_MAX_ATTEMPTS", defaultRefMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.LookupRatePerMinute, err = parseIntEnv("LOOKUP_RATE_PER_MINUTE", defaultLookupPerMinute); err != nil {
		return nil, err
	}
	if cfg.MaxStayNights, err = parseIntEnv("MAX_STAY_NIGHTS", defaultMaxStayNights); err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("PORT must be a number, got %q", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.SplitPaymentDueIn <= 0 {
		return fmt.Errorf("SPLIT_PAYMENT_DUE_IN must be > 0")
	}
	if cfg.BookingRefAttempts < 1 || cfg.BookingRefAttempts > 20 {
		return fmt.Errorf("BOOKING_REF_MAX_ATTEMPTS must be between 1 and 20")
	}
	if cfg.LookupRatePerMinute < 1 {
		return fmt.Errorf("LOOKUP_RATE_PER_MINUTE must be > 0")
	}
	if cfg.MaxStayNights < 1 || cfg.MaxStayNights > domain.MaxStayNights {
		return fmt.Errorf("MAX_STAY_NIGHTS must be between 1 and %d", domain.MaxStayNights)
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.DatabaseURL == defaultDatabaseURL {
			return fmt.Errorf("in prod/release DATABASE_URL must be set")
		}
	}

	return nil
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
