package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoyal/delhiair/internal/aqi"
	"github.com/rgoyal/delhiair/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) UpsertDistrict(d models.District) error {
	_, err := s.db.Exec(`
		INSERT INTO districts (name, latitude, longitude)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`, d.Name, d.Latitude, d.Longitude)
	return err
}

func (s *Store) GetDistricts() ([]models.District, error) {
	rows, err := s.db.Query(`SELECT name, latitude, longitude FROM districts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var districts []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.Name, &d.Latitude, &d.Longitude); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

// InsertRecords writes one ingestion batch in a single transaction. An
// empty batch is a no-op.
func (s *Store) InsertRecords(records []models.AQIRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO aqi_records (district, aqi, category, pm25, pm10, no2, o3, so2, co, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		p := r.Pollutants
		if _, err := stmt.Exec(r.District, r.AQI, string(r.Category), p.PM25, p.PM10, p.NO2, p.O3, p.SO2, p.CO, r.Timestamp); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %s: %w", r.District, err)
		}
	}

	return tx.Commit()
}

const recordColumns = `id, district, aqi, category, pm25, pm10, no2, o3, so2, co, observed_at, created_at`

func scanRecord(scan func(...any) error) (models.AQIRecord, error) {
	var r models.AQIRecord
	var category string
	err := scan(&r.ID, &r.District, &r.AQI, &category,
		&r.Pollutants.PM25, &r.Pollutants.PM10, &r.Pollutants.NO2,
		&r.Pollutants.O3, &r.Pollutants.SO2, &r.Pollutants.CO,
		&r.Timestamp, &r.CreatedAt)
	r.Category = aqi.Category(category)
	return r, err
}

// LatestPerDistrict returns the most recent record for every district that
// has data, ordered by descending AQI. Ties on observed_at break toward the
// highest row id so the result is stable for a fixed input set.
func (s *Store) LatestPerDistrict() ([]models.AQIRecord, error) {
	rows, err := s.db.Query(`
		SELECT ` + recordColumns + `
		FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY district ORDER BY observed_at DESC, id DESC) AS rn
			FROM aqi_records
		)
		WHERE rn = 1
		ORDER BY aqi DESC, district ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AQIRecord
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Latest returns the most recent record for one district, or nil if the
// district has never been ingested.
func (s *Store) Latest(district string) (*models.AQIRecord, error) {
	row := s.db.QueryRow(`
		SELECT `+recordColumns+`
		FROM aqi_records
		WHERE district = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1
	`, district)

	r, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// History returns all records for a district at or after since, ascending
// by timestamp.
func (s *Store) History(district string, since time.Time) ([]models.AQIRecord, error) {
	rows, err := s.db.Query(`
		SELECT `+recordColumns+`
		FROM aqi_records
		WHERE district = ? AND observed_at >= ?
		ORDER BY observed_at ASC, id ASC
	`, district, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AQIRecord
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DistinctDistricts returns the district names actually present in the
// store, which may lag the registry when a district has never ingested.
func (s *Store) DistinctDistricts() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT district FROM aqi_records ORDER BY district`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var districts []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

// Worst returns the top-limit latest-per-district records by descending
// AQI. Its output is always a prefix of LatestPerDistrict.
func (s *Store) Worst(limit int) ([]models.AQIRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	records, err := s.LatestPerDistrict()
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Summary computes aggregate statistics over the latest-per-district view.
// Returns nil when the store holds no records.
func (s *Store) Summary() (*models.Summary, error) {
	records, err := s.LatestPerDistrict()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	summary := &models.Summary{
		TotalDistricts: len(records),
		MaxAQI:         records[0].AQI,
		MinAQI:         records[0].AQI,
	}

	total := 0
	for _, r := range records {
		total += r.AQI
		if r.AQI > summary.MaxAQI {
			summary.MaxAQI = r.AQI
		}
		if r.AQI < summary.MinAQI {
			summary.MinAQI = r.AQI
		}
		summary.Breakdown = append(summary.Breakdown, models.DistrictAQI{
			District: r.District,
			AQI:      r.AQI,
			Category: r.Category,
		})
	}
	summary.AverageAQI = float64(total) / float64(len(records))

	return summary, nil
}
