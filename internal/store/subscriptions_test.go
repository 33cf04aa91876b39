package store

import (
	"testing"

	"github.com/rgoyal/delhiair/internal/models"
)

func TestUpsertAndGetSubscription(t *testing.T) {
	store := setupTestStore(t)

	sub := models.Subscription{
		SubscriberID: "user-1",
		Email:        "user1@example.com",
		Enabled:      true,
		Threshold:    150,
		Districts:    []string{"Central Delhi", "New Delhi"},
		EmailAlerts:  true,
	}
	if err := store.UpsertSubscription(sub); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}

	got, err := store.GetSubscription("user-1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got == nil {
		t.Fatal("GetSubscription returned nil")
	}
	if got.Threshold != 150 {
		t.Errorf("Threshold = %d, want 150", got.Threshold)
	}
	if len(got.Districts) != 2 || got.Districts[0] != "Central Delhi" {
		t.Errorf("Districts = %v, want [Central Delhi New Delhi]", got.Districts)
	}
	if !got.EmailAlerts || got.SMSAlerts {
		t.Errorf("EmailAlerts = %v, SMSAlerts = %v, want true/false", got.EmailAlerts, got.SMSAlerts)
	}

	sub.Threshold = 200
	sub.Districts = nil
	if err := store.UpsertSubscription(sub); err != nil {
		t.Fatalf("UpsertSubscription update: %v", err)
	}

	got, err = store.GetSubscription("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Threshold != 200 {
		t.Errorf("Threshold = %d, want 200", got.Threshold)
	}
	if len(got.Districts) != 0 {
		t.Errorf("Districts = %v, want empty", got.Districts)
	}
}

func TestGetSubscription_NotFound(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.GetSubscription("missing")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got != nil {
		t.Errorf("GetSubscription = %+v, want nil", got)
	}
}

func TestGetEnabledSubscriptions(t *testing.T) {
	store := setupTestStore(t)

	subs := []models.Subscription{
		{SubscriberID: "on-1", Enabled: true, Threshold: 100, EmailAlerts: true},
		{SubscriberID: "off", Enabled: false, Threshold: 100},
		{SubscriberID: "on-2", Enabled: true, Threshold: 300, SMSAlerts: true},
	}
	for _, sub := range subs {
		if err := store.UpsertSubscription(sub); err != nil {
			t.Fatal(err)
		}
	}

	enabled, err := store.GetEnabledSubscriptions()
	if err != nil {
		t.Fatalf("GetEnabledSubscriptions: %v", err)
	}
	if len(enabled) != 2 {
		t.Fatalf("len(enabled) = %d, want 2", len(enabled))
	}
	if enabled[0].SubscriberID != "on-1" || enabled[1].SubscriberID != "on-2" {
		t.Errorf("enabled = %s, %s, want on-1, on-2", enabled[0].SubscriberID, enabled[1].SubscriberID)
	}
}
