package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/rgoyal/delhiair/internal/alert"
	"github.com/rgoyal/delhiair/internal/api"
	"github.com/rgoyal/delhiair/internal/config"
	"github.com/rgoyal/delhiair/internal/ingest"
	"github.com/rgoyal/delhiair/internal/models"
	"github.com/rgoyal/delhiair/internal/notify"
	"github.com/rgoyal/delhiair/internal/store"
)

// Approximate central points of the Delhi districts we monitor.
var delhiDistricts = []models.District{
	{Name: "Central Delhi", Latitude: 28.6358, Longitude: 77.2245},
	{Name: "East Delhi", Latitude: 28.6692, Longitude: 77.3154},
	{Name: "New Delhi", Latitude: 28.6139, Longitude: 77.2090},
	{Name: "North Delhi", Latitude: 28.7041, Longitude: 77.1025},
	{Name: "North East Delhi", Latitude: 28.7154, Longitude: 77.2842},
	{Name: "North West Delhi", Latitude: 28.7272, Longitude: 77.0688},
	{Name: "Shahdara", Latitude: 28.6714, Longitude: 77.2862},
	{Name: "South Delhi", Latitude: 28.5355, Longitude: 77.2500},
	{Name: "South East Delhi", Latitude: 28.5562, Longitude: 77.2760},
	{Name: "South West Delhi", Latitude: 28.5820, Longitude: 77.0707},
	{Name: "West Delhi", Latitude: 28.6562, Longitude: 77.1000},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbPath := flag.String("db", cfg.DBPath, "path to SQLite database")
	port := flag.String("port", cfg.Port, "HTTP server port")
	noPoll := flag.Bool("no-poll", false, "disable scheduled jobs (server only, for local dev)")
	once := flag.Bool("once", false, "ingest once and exit (for testing)")
	flag.Parse()

	if cfg.OpenWeatherAPIKey == "" {
		log.Fatal("OPENWEATHER_API_KEY environment variable required")
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	for _, district := range delhiDistricts {
		if err := st.UpsertDistrict(district); err != nil {
			log.Fatalf("upsert district %s: %v", district.Name, err)
		}
	}
	log.Println("districts seeded")

	client := ingest.NewClient(cfg.OpenWeatherAPIKey)
	ingestor := ingest.NewIngestor(st, client, delhiDistricts)

	if *once {
		log.Println("running single ingestion")
		report := ingestor.Run(context.Background())
		log.Printf("done: %d succeeded, %d failed", report.Succeeded, report.Failed)
		return
	}

	evaluator := alert.NewEvaluator(st, notify.NewEmailNotifier(cfg.SMTP), notify.NewSMSNotifier())
	scheduler := ingest.NewScheduler(ingestor, cfg.IngestInterval, cfg.AlertInterval)
	scheduler.SetAlertJob(func(ctx context.Context) {
		evaluator.Run(ctx)
	})
	server := api.NewServer(st, *port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*noPoll {
		if err := scheduler.Start(); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		defer func() { <-scheduler.Stop().Done() }()
	} else {
		log.Println("scheduled jobs disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", *port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
