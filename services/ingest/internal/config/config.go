package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/geo"
)

const (
	defaultSourceURL      = "https://opendata.cui.wroclaw.pl/dataset/wrmprzejazdy_data/resource_history/c737af89-bcf7-4f7d-8bbc-4a0946d7006e"
	defaultStationsFile   = "data/bike_stations.csv"
	defaultOutputDir      = "."
	defaultRequestTimeout = 60 * time.Second
	defaultTopicPrefix    = "citybike"
	defaultTimezone       = "Europe/Warsaw"
)

// Config holds runtime configuration for the ingest job.
type Config struct {
	DatabaseURL       string
	SourceURL         string
	StationsFile      string
	OutputDir         string
	RequestTimeout    time.Duration
	DistanceMethod    geo.Method
	PricingPolicyFile string
	MQTT              MQTTConfig
	DryRun            bool
	Location          *time.Location
	LogLevel          string
}

// MQTTConfig configures daily summary publishing. Publishing is off when Broker is empty.
type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	Username    string
	Password    string
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.SourceURL = strings.TrimSpace(os.Getenv("SOURCE_URL"))
	if cfg.SourceURL == "" {
		cfg.SourceURL = defaultSourceURL
	}

	cfg.StationsFile = strings.TrimSpace(os.Getenv("STATIONS_FILE"))
	if cfg.StationsFile == "" {
		cfg.StationsFile = defaultStationsFile
	}

	cfg.OutputDir = strings.TrimSpace(os.Getenv("OUTPUT_DIR"))
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}

	cfg.RequestTimeout = defaultRequestTimeout
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	method, err := geo.ParseMethod(os.Getenv("DISTANCE_METHOD"))
	if err != nil {
		return cfg, fmt.Errorf("invalid DISTANCE_METHOD: %w", err)
	}
	cfg.DistanceMethod = method

	cfg.MQTT = MQTTConfig{
		Broker:      strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		TopicPrefix: strings.TrimSpace(os.Getenv("MQTT_TOPIC_PREFIX")),
		Username:    os.Getenv("MQTT_USERNAME"),
		Password:    os.Getenv("MQTT_PASSWORD"),
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = defaultTopicPrefix
	}

	tz := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if tz == "" {
		tz = defaultTimezone
	}
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	cfg.PricingPolicyFile = strings.TrimSpace(os.Getenv("PRICING_POLICY_FILE"))
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	return cfg, nil
}
