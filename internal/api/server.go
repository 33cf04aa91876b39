// Package api exposes the read-side HTTP surface over the AQI store.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rgoyal/delhiair/internal/store"
)

type Server struct {
	store *store.Store
	port  string
}

func NewServer(st *store.Store, port string) *Server {
	return &Server{store: st, port: port}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/aqi/latest", s.handleLatest)
	mux.HandleFunc("/aqi/district/", s.handleDistrict)
	mux.HandleFunc("/aqi/history", s.handleHistory)
	mux.HandleFunc("/aqi/districts", s.handleDistricts)
	mux.HandleFunc("/aqi/summary", s.handleSummary)
	mux.HandleFunc("/aqi/worst", s.handleWorst)
	mux.HandleFunc("/alerts/subscribers", s.handleSubscribers)
	mux.HandleFunc("/alerts/subscriptions/", s.handleSubscription)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeError(w, http.StatusInternalServerError, "database unavailable", err)
		return
	}
	version, err := s.store.MigrationVersion()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "migration check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"migration": version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	writeJSON(w, status, body)
}
