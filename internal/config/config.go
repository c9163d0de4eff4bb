package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port     int
	MongoURI string
	MongoDB  string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string

	RedisAddr         string
	RateLimitWindow   time.Duration
	RateLimitRequests int

	FrontendURL string
	BaseURL     string
}

// Load reads configuration from environment variables and validates required fields.
// A .env file in the working directory is applied first, if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return Config{}, fmt.Errorf("parse PORT: %w", err)
	}

	accessTTL, err := getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse JWT_ACCESS_TTL: %w", err)
	}

	refreshTTL, err := getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse JWT_REFRESH_TTL: %w", err)
	}

	rateWindow, err := getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_WINDOW: %w", err)
	}

	rateRequests, err := getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_MAX_REQUESTS: %w", err)
	}

	cfg := Config{
		Port:                 port,
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:              getEnv("MONGODB_DATABASE", "blog"),
		AccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		RefreshSecret:        getEnv("JWT_REFRESH_SECRET", ""),
		AccessTTL:            accessTTL,
		RefreshTTL:           refreshTTL,
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_APP_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RateLimitWindow:      rateWindow,
		RateLimitRequests:    rateRequests,
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:3000"),
		BaseURL:              getEnv("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
