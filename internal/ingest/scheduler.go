package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the periodic jobs: the ingestion pass and, when
// configured, the alert evaluation pass. Jobs are registered against a
// single cron instance with an explicit start/stop lifecycle owned by the
// composition root.
type Scheduler struct {
	cron           *cron.Cron
	ingestor       *Ingestor
	alertJob       func(context.Context)
	ingestInterval time.Duration
	alertInterval  time.Duration
}

func NewScheduler(ingestor *Ingestor, ingestInterval, alertInterval time.Duration) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		ingestor:       ingestor,
		ingestInterval: ingestInterval,
		alertInterval:  alertInterval,
	}
}

// SetAlertJob configures the scheduler to run alert evaluation on its own
// interval, independent of the ingestion schedule.
func (s *Scheduler) SetAlertJob(job func(context.Context)) {
	s.alertJob = job
}

// Start registers the jobs and runs the ingestion pass once eagerly.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.ingestInterval)
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.ingestInterval)
		defer cancel()
		s.ingestor.Run(ctx)
	}); err != nil {
		return fmt.Errorf("schedule ingest: %w", err)
	}

	if s.alertJob != nil {
		alertSpec := fmt.Sprintf("@every %s", s.alertInterval)
		if _, err := s.cron.AddFunc(alertSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.alertInterval)
			defer cancel()
			s.alertJob(ctx)
		}); err != nil {
			return fmt.Errorf("schedule alerts: %w", err)
		}
	}

	// Seed the store before the first tick so the API has data at startup.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.ingestInterval)
		defer cancel()
		s.ingestor.Run(ctx)
	}()

	s.cron.Start()
	log.Printf("scheduler: started (ingest every %s, alerts every %s)", s.ingestInterval, s.alertInterval)
	return nil
}

// Stop halts scheduling and returns a context that completes when any
// in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	log.Println("scheduler: shutting down")
	return s.cron.Stop()
}
