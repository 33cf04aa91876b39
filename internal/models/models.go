package models

import (
	"database/sql"
	"time"

	"github.com/rgoyal/delhiair/internal/aqi"
)

// District is a monitored location. The registry is fixed at process start
// and never mutated.
type District struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// PollutantReading holds the raw component concentrations (µg/m³) returned
// by the pollution provider for one district. PM2.5 is the only component
// required for AQI conversion; the rest are stored when present.
type PollutantReading struct {
	PM25 float64
	PM10 sql.NullFloat64
	NO2  sql.NullFloat64
	O3   sql.NullFloat64
	SO2  sql.NullFloat64
	CO   sql.NullFloat64
}

// AQIRecord is the persisted unit of the time series: one converted reading
// per district per ingestion run. Records are append-only.
type AQIRecord struct {
	ID         int64
	District   string
	AQI        int
	Category   aqi.Category
	Pollutants PollutantReading
	Timestamp  time.Time
	CreatedAt  time.Time
}

// Subscription holds one subscriber's alert preferences. An empty Districts
// slice means every district in the registry is checked.
type Subscription struct {
	SubscriberID string
	Email        string
	Phone        string
	Enabled      bool
	Threshold    int
	Districts    []string
	EmailAlerts  bool
	SMSAlerts    bool
	UpdatedAt    time.Time
}

// DistrictAQI is one row of the summary breakdown.
type DistrictAQI struct {
	District string       `json:"district"`
	AQI      int          `json:"aqi"`
	Category aqi.Category `json:"category"`
}

// Summary aggregates the latest-per-district view.
type Summary struct {
	TotalDistricts int           `json:"totalDistricts"`
	AverageAQI     float64       `json:"averageAQI"`
	MaxAQI         int           `json:"maxAQI"`
	MinAQI         int           `json:"minAQI"`
	Breakdown      []DistrictAQI `json:"categoryBreakdown"`
}

// IngestionReport is the outcome of a single ingestion run.
type IngestionReport struct {
	Succeeded int
	Failed    int
}

// AlertReport is the outcome of a single alert evaluation run.
type AlertReport struct {
	Notified int
	Errored  int
}
