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

const defaultMinDate = "2023-03-02"

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL       string
	Port              int
	BearerToken       string
	MinDate           time.Time
	PricingPolicyFile string
	Currency          string
	QueryTimeout      time.Duration
	LogLevel          string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:         8080,
		Currency:     "PLN",
		QueryTimeout: 15 * time.Second,
	}
	cfg.MinDate, _ = time.Parse(time.DateOnly, defaultMinDate)

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if v := strings.TrimSpace(os.Getenv("MIN_DATE")); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return cfg, fmt.Errorf("invalid MIN_DATE: %w", err)
		}
		cfg.MinDate = d
	}

	if v := strings.TrimSpace(os.Getenv("QUERY_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid QUERY_TIMEOUT: %s", v)
		}
		cfg.QueryTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("CURRENCY")); v != "" {
		cfg.Currency = v
	}

	cfg.PricingPolicyFile = strings.TrimSpace(os.Getenv("PRICING_POLICY_FILE"))
	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
