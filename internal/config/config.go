// Package config loads runtime configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath            string
	Port              string
	OpenWeatherAPIKey string
	IngestInterval    time.Duration
	AlertInterval     time.Duration
	SMTP              SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	// Load .env if present; ignore when absent.
	_ = godotenv.Load()

	ingestInterval, err := getEnvAsDuration("INGEST_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	alertInterval, err := getEnvAsDuration("ALERT_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:            getEnv("AQI_DB_PATH", "data/delhiair.db"),
		Port:              getEnv("PORT", "8080"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		IngestInterval:    ingestInterval,
		AlertInterval:     alertInterval,
		SMTP: SMTPConfig{
			Host:     getEnv("EMAIL_HOST", "localhost"),
			Port:     getEnvAsInt("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     getEnv("EMAIL_FROM", "alerts@delhiair.local"),
		},
	}

	if cfg.IngestInterval <= 0 {
		return nil, fmt.Errorf("INGEST_INTERVAL must be positive")
	}
	if cfg.AlertInterval <= 0 {
		return nil, fmt.Errorf("ALERT_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
