package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rgoyal/delhiair/internal/models"
)

// recordResponse is the wire shape of one AQI record. Optional pollutant
// components render as null when the provider omitted them.
type recordResponse struct {
	District   string             `json:"district"`
	AQI        int                `json:"aqi"`
	Category   string             `json:"category"`
	Color      string             `json:"color"`
	Pollutants pollutantsResponse `json:"pollutants"`
	Timestamp  time.Time          `json:"timestamp"`
}

type pollutantsResponse struct {
	PM25 float64  `json:"pm25"`
	PM10 *float64 `json:"pm10"`
	NO2  *float64 `json:"no2"`
	O3   *float64 `json:"o3"`
	SO2  *float64 `json:"so2"`
	CO   *float64 `json:"co"`
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func toRecordResponse(r models.AQIRecord) recordResponse {
	return recordResponse{
		District: r.District,
		AQI:      r.AQI,
		Category: string(r.Category),
		Color:    r.Category.Color(),
		Pollutants: pollutantsResponse{
			PM25: r.Pollutants.PM25,
			PM10: nullable(r.Pollutants.PM10),
			NO2:  nullable(r.Pollutants.NO2),
			O3:   nullable(r.Pollutants.O3),
			SO2:  nullable(r.Pollutants.SO2),
			CO:   nullable(r.Pollutants.CO),
		},
		Timestamp: r.Timestamp,
	}
}

func toRecordResponses(records []models.AQIRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LatestPerDistrict()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch AQI data", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(records))
}

func (s *Server) handleDistrict(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/aqi/district/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "District name is required", nil)
		return
	}

	record, err := s.store.Latest(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch district data", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "No data found for this district", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(*record))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	district := r.URL.Query().Get("district")
	if district == "" {
		writeError(w, http.StatusBadRequest, "District name is required", nil)
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
			return
		}
		days = n
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	records, err := s.store.History(district, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch historical data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"district":   district,
		"days":       days,
		"dataPoints": len(records),
		"data":       toRecordResponses(records),
	})
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := s.store.DistinctDistricts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch districts", err)
		return
	}
	if districts == nil {
		districts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"districts": districts})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch summary", err)
		return
	}
	if summary == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "No AQI data available yet",
			"totalDistricts": 0,
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleWorst(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = n
	}

	records, err := s.store.Worst(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch worst districts", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(records))
}

type subscriptionResponse struct {
	SubscriberID string   `json:"subscriberId"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Enabled      bool     `json:"enabled"`
	Threshold    int      `json:"threshold"`
	Districts    []string `json:"districts"`
	EmailAlerts  bool     `json:"emailAlerts"`
	SMSAlerts    bool     `json:"smsAlerts"`
}

func toSubscriptionResponse(sub models.Subscription) subscriptionResponse {
	districts := sub.Districts
	if districts == nil {
		districts = []string{}
	}
	return subscriptionResponse{
		SubscriberID: sub.SubscriberID,
		Email:        sub.Email,
		Phone:        sub.Phone,
		Enabled:      sub.Enabled,
		Threshold:    sub.Threshold,
		Districts:    districts,
		EmailAlerts:  sub.EmailAlerts,
		SMSAlerts:    sub.SMSAlerts,
	}
}

func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subs, err := s.store.GetEnabledSubscriptions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch subscribers", err)
		return
	}

	responses := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		responses = append(responses, toSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(responses),
		"subscribers": responses,
	})
}

type subscriptionRequest struct {
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Enabled     bool     `json:"enabled"`
	Threshold   int      `json:"threshold"`
	Districts   []string `json:"districts"`
	EmailAlerts bool     `json:"emailAlerts"`
	SMSAlerts   bool     `json:"smsAlerts"`
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/alerts/subscriptions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Subscriber id is required", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sub, err := s.store.GetSubscription(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch subscription", err)
			return
		}
		if sub == nil {
			writeError(w, http.StatusNotFound, "No subscription found", nil)
			return
		}
		writeJSON(w, http.StatusOK, toSubscriptionResponse(*sub))

	case http.MethodPut:
		var req subscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.Threshold < 0 || req.Threshold > 500 {
			writeError(w, http.StatusBadRequest, "Threshold must be between 0 and 500", nil)
			return
		}

		sub := models.Subscription{
			SubscriberID: id,
			Email:        req.Email,
			Phone:        req.Phone,
			Enabled:      req.Enabled,
			Threshold:    req.Threshold,
			Districts:    req.Districts,
			EmailAlerts:  req.EmailAlerts,
			SMSAlerts:    req.SMSAlerts,
		}
		if err := s.store.UpsertSubscription(sub); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update subscription", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":      "Preferences updated successfully",
			"subscription": toSubscriptionResponse(sub),
		})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
