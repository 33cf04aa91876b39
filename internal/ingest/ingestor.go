// Package ingest polls the air pollution provider for every registered
// district and appends converted AQI records to the store.
package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rgoyal/delhiair/internal/aqi"
	"github.com/rgoyal/delhiair/internal/metrics"
	"github.com/rgoyal/delhiair/internal/models"
	"github.com/rgoyal/delhiair/internal/store"
)

// Fetcher retrieves the current pollutant reading for one district.
type Fetcher interface {
	FetchReading(ctx context.Context, district models.District) (*models.PollutantReading, error)
}

const fetchTimeout = 60 * time.Second

// Ingestor runs one fetch per district concurrently and writes the
// successful results as a single batch.
type Ingestor struct {
	store     *store.Store
	fetcher   Fetcher
	districts []models.District
}

func NewIngestor(st *store.Store, fetcher Fetcher, districts []models.District) *Ingestor {
	return &Ingestor{
		store:     st,
		fetcher:   fetcher,
		districts: districts,
	}
}

type fetchResult struct {
	record models.AQIRecord
	err    error
}

// Run executes one ingestion pass. A failed district is logged and counted
// but never aborts the batch; a failed batch write fails every record in
// the run. The job carries no state between runs.
func (ing *Ingestor) Run(ctx context.Context) models.IngestionReport {
	log.Printf("ingest: fetching AQI for %d districts", len(ing.districts))

	results := make([]fetchResult, len(ing.districts))
	var wg sync.WaitGroup
	for i, district := range ing.districts {
		wg.Add(1)
		go func(i int, district models.District) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			reading, err := ing.fetcher.FetchReading(fetchCtx, district)
			if err != nil {
				results[i] = fetchResult{err: err}
				return
			}

			value := aqi.Convert(reading.PM25)
			results[i] = fetchResult{record: models.AQIRecord{
				District:   district.Name,
				AQI:        value,
				Category:   aqi.Categorize(value),
				Pollutants: *reading,
				Timestamp:  time.Now().UTC(),
			}}
		}(i, district)
	}
	wg.Wait()

	var report models.IngestionReport
	var records []models.AQIRecord
	for _, res := range results {
		if res.err != nil {
			log.Printf("ingest: %v", res.err)
			report.Failed++
			continue
		}
		records = append(records, res.record)
	}

	if err := ing.store.InsertRecords(records); err != nil {
		log.Printf("ingest: write batch: %v", err)
		metrics.IngestRunsTotal.WithLabelValues("write_failed").Inc()
		report.Failed += len(records)
		return report
	}

	for _, r := range records {
		metrics.RecordsIngested.WithLabelValues(r.District).Inc()
	}
	report.Succeeded = len(records)

	if report.Succeeded == 0 {
		metrics.IngestRunsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.IngestRunsTotal.WithLabelValues("ok").Inc()
	}
	log.Printf("ingest: stored %d records, %d districts failed", report.Succeeded, report.Failed)
	return report
}
