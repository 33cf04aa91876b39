package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rgoyal/delhiair/internal/models"
)

// UpsertSubscription inserts or replaces a subscriber's alert preferences.
func (s *Store) UpsertSubscription(sub models.Subscription) error {
	districts, err := json.Marshal(sub.Districts)
	if err != nil {
		return fmt.Errorf("marshal districts: %w", err)
	}
	if sub.Districts == nil {
		districts = []byte("[]")
	}

	_, err = s.db.Exec(`
		INSERT INTO alert_subscriptions (subscriber_id, email, phone, enabled, threshold, districts, email_alerts, sms_alerts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subscriber_id) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			enabled = excluded.enabled,
			threshold = excluded.threshold,
			districts = excluded.districts,
			email_alerts = excluded.email_alerts,
			sms_alerts = excluded.sms_alerts,
			updated_at = excluded.updated_at
	`, sub.SubscriberID, sub.Email, sub.Phone, sub.Enabled, sub.Threshold,
		string(districts), sub.EmailAlerts, sub.SMSAlerts, time.Now().UTC())
	return err
}

// GetSubscription returns one subscriber's preferences, or nil if unknown.
func (s *Store) GetSubscription(subscriberID string) (*models.Subscription, error) {
	row := s.db.QueryRow(`
		SELECT subscriber_id, email, phone, enabled, threshold, districts, email_alerts, sms_alerts, updated_at
		FROM alert_subscriptions
		WHERE subscriber_id = ?
	`, subscriberID)

	sub, err := scanSubscription(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetEnabledSubscriptions returns every subscription with alerts enabled.
func (s *Store) GetEnabledSubscriptions() ([]models.Subscription, error) {
	rows, err := s.db.Query(`
		SELECT subscriber_id, email, phone, enabled, threshold, districts, email_alerts, sms_alerts, updated_at
		FROM alert_subscriptions
		WHERE enabled = TRUE
		ORDER BY subscriber_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(scan func(...any) error) (models.Subscription, error) {
	var sub models.Subscription
	var districts string
	err := scan(&sub.SubscriberID, &sub.Email, &sub.Phone, &sub.Enabled,
		&sub.Threshold, &districts, &sub.EmailAlerts, &sub.SMSAlerts, &sub.UpdatedAt)
	if err != nil {
		return sub, err
	}
	if err := json.Unmarshal([]byte(districts), &sub.Districts); err != nil {
		return sub, fmt.Errorf("unmarshal districts for %s: %w", sub.SubscriberID, err)
	}
	return sub, nil
}
