package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port            string
	DBConn          string
	LogLevel        string
	JWTSecret       string
	TokenTTL        time.Duration
	ItemsPerPage    int
	ImageDir        string
	PublicURL       string
	CleanupSchedule string
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SenderEmail     string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5432 user=feed password=feed dbname=feed sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        time.Hour,
		ItemsPerPage:    2,
		ImageDir:        getEnv("IMAGE_DIR", "images"),
		PublicURL:       getEnv("PUBLIC_URL", "http://localhost:8080"),
		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "@hourly"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "no-reply@feed-service.local"),
	}

	if ttl := os.Getenv("TOKEN_TTL_SECONDS"); ttl != "" {
		seconds, err := strconv.Atoi(ttl)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL_SECONDS: %q", ttl)
		}
		cfg.TokenTTL = time.Duration(seconds) * time.Second
	}
	if perPage := os.Getenv("ITEMS_PER_PAGE"); perPage != "" {
		n, err := strconv.Atoi(perPage)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid ITEMS_PER_PAGE: %q", perPage)
		}
		cfg.ItemsPerPage = n
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
