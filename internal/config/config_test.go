package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "data/delhiair.db" {
		t.Errorf("DBPath = %q, want data/delhiair.db", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.IngestInterval != time.Hour {
		t.Errorf("IngestInterval = %v, want 1h", cfg.IngestInterval)
	}
	if cfg.AlertInterval != 30*time.Minute {
		t.Errorf("AlertInterval = %v, want 30m", cfg.AlertInterval)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want 587", cfg.SMTP.Port)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AQI_DB_PATH", "/tmp/test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("INGEST_INTERVAL", "15m")
	t.Setenv("ALERT_INTERVAL", "5m")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_PORT", "2525")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.OpenWeatherAPIKey != "test-key" {
		t.Errorf("OpenWeatherAPIKey = %q", cfg.OpenWeatherAPIKey)
	}
	if cfg.IngestInterval != 15*time.Minute {
		t.Errorf("IngestInterval = %v", cfg.IngestInterval)
	}
	if cfg.AlertInterval != 5*time.Minute {
		t.Errorf("AlertInterval = %v", cfg.AlertInterval)
	}
	if cfg.SMTP.Host != "smtp.example.com" || cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP = %+v", cfg.SMTP)
	}
}

func TestLoadInvalidInterval(t *testing.T) {
	t.Setenv("INGEST_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable INGEST_INTERVAL")
	}

	t.Setenv("INGEST_INTERVAL", "-1h")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative INGEST_INTERVAL")
	}
}
