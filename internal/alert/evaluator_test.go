package alert

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rgoyal/delhiair/internal/aqi"
	"github.com/rgoyal/delhiair/internal/models"
	"github.com/rgoyal/delhiair/internal/store"
)

type notification struct {
	subscriberID string
	district     string
	value        int
	category     aqi.Category
}

type fakeNotifier struct {
	method string
	fail   bool
	sent   []notification
}

func (f *fakeNotifier) Method() string { return f.method }

func (f *fakeNotifier) Notify(ctx context.Context, sub models.Subscription, district string, value int, category aqi.Category) error {
	if f.fail {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, notification{sub.SubscriberID, district, value, category})
	return nil
}

func setupAlertStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func insertRecord(t *testing.T, st *store.Store, district string, value int) {
	t.Helper()
	err := st.InsertRecords([]models.AQIRecord{{
		District:   district,
		AQI:        value,
		Category:   aqi.Categorize(value),
		Pollutants: models.PollutantReading{PM25: float64(value)},
		Timestamp:  time.Now().UTC(),
	}})
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}
}

func TestEvaluator_ThresholdBreach(t *testing.T) {
	st := setupAlertStore(t)
	if err := st.UpsertDistrict(models.District{Name: "X"}); err != nil {
		t.Fatal(err)
	}
	insertRecord(t, st, "X", 180)

	sub := models.Subscription{
		SubscriberID: "user-1",
		Email:        "u@example.com",
		Enabled:      true,
		Threshold:    150,
		EmailAlerts:  true,
	}
	if err := st.UpsertSubscription(sub); err != nil {
		t.Fatal(err)
	}

	email := &fakeNotifier{method: "email"}
	ev := NewEvaluator(st, email, nil)

	report := ev.Run(context.Background())
	if report.Notified != 1 || report.Errored != 0 {
		t.Fatalf("report = %+v, want 1 notified", report)
	}
	if len(email.sent) != 1 {
		t.Fatalf("len(sent) = %d, want 1", len(email.sent))
	}
	got := email.sent[0]
	if got.subscriberID != "user-1" || got.district != "X" || got.value != 180 {
		t.Errorf("sent = %+v", got)
	}
	if got.category != aqi.CategoryUnhealthy {
		t.Errorf("category = %q, want Unhealthy", got.category)
	}

	// No suppression: a second run with unchanged data re-notifies.
	report = ev.Run(context.Background())
	if report.Notified != 1 {
		t.Fatalf("second run report = %+v, want 1 notified", report)
	}
	if len(email.sent) != 2 {
		t.Errorf("len(sent) = %d, want 2 after second run", len(email.sent))
	}
}

func TestEvaluator_BelowThreshold(t *testing.T) {
	st := setupAlertStore(t)
	if err := st.UpsertDistrict(models.District{Name: "X"}); err != nil {
		t.Fatal(err)
	}
	insertRecord(t, st, "X", 120)

	sub := models.Subscription{SubscriberID: "user-1", Enabled: true, Threshold: 150, EmailAlerts: true}
	if err := st.UpsertSubscription(sub); err != nil {
		t.Fatal(err)
	}

	email := &fakeNotifier{method: "email"}
	report := NewEvaluator(st, email, nil).Run(context.Background())
	if report.Notified != 0 {
		t.Errorf("report = %+v, want 0 notified", report)
	}
	if len(email.sent) != 0 {
		t.Errorf("len(sent) = %d, want 0", len(email.sent))
	}
}

func TestEvaluator_DistrictScope(t *testing.T) {
	st := setupAlertStore(t)
	for _, name := range []string{"X", "Y"} {
		if err := st.UpsertDistrict(models.District{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	insertRecord(t, st, "X", 300)
	insertRecord(t, st, "Y", 300)

	sub := models.Subscription{
		SubscriberID: "user-1",
		Enabled:      true,
		Threshold:    150,
		Districts:    []string{"Y"},
		EmailAlerts:  true,
	}
	if err := st.UpsertSubscription(sub); err != nil {
		t.Fatal(err)
	}

	email := &fakeNotifier{method: "email"}
	report := NewEvaluator(st, email, nil).Run(context.Background())
	if report.Notified != 1 {
		t.Fatalf("report = %+v, want 1 notified", report)
	}
	if email.sent[0].district != "Y" {
		t.Errorf("district = %q, want Y (subscription scope)", email.sent[0].district)
	}
}

func TestEvaluator_EmptyDistrictsMeansAll(t *testing.T) {
	st := setupAlertStore(t)
	for _, name := range []string{"X", "Y", "Z"} {
		if err := st.UpsertDistrict(models.District{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	insertRecord(t, st, "X", 200)
	insertRecord(t, st, "Y", 200)
	// Z never ingested; must be silently skipped, not an error.

	sub := models.Subscription{SubscriberID: "user-1", Enabled: true, Threshold: 150, EmailAlerts: true}
	if err := st.UpsertSubscription(sub); err != nil {
		t.Fatal(err)
	}

	email := &fakeNotifier{method: "email"}
	report := NewEvaluator(st, email, nil).Run(context.Background())
	if report.Notified != 2 || report.Errored != 0 {
		t.Fatalf("report = %+v, want 2 notified, 0 errored", report)
	}
}

func TestEvaluator_DeliveryFailureIsolated(t *testing.T) {
	st := setupAlertStore(t)
	if err := st.UpsertDistrict(models.District{Name: "X"}); err != nil {
		t.Fatal(err)
	}
	insertRecord(t, st, "X", 400)

	subs := []models.Subscription{
		{SubscriberID: "failing", Enabled: true, Threshold: 100, EmailAlerts: true},
		{SubscriberID: "working", Enabled: true, Threshold: 100, SMSAlerts: true},
	}
	for _, sub := range subs {
		if err := st.UpsertSubscription(sub); err != nil {
			t.Fatal(err)
		}
	}

	email := &fakeNotifier{method: "email", fail: true}
	sms := &fakeNotifier{method: "sms"}
	report := NewEvaluator(st, email, sms).Run(context.Background())

	if report.Notified != 1 || report.Errored != 1 {
		t.Fatalf("report = %+v, want 1 notified, 1 errored", report)
	}
	if len(sms.sent) != 1 || sms.sent[0].subscriberID != "working" {
		t.Errorf("sms.sent = %+v, want one delivery to 'working'", sms.sent)
	}
}

func TestEvaluator_BothMethods(t *testing.T) {
	st := setupAlertStore(t)
	if err := st.UpsertDistrict(models.District{Name: "X"}); err != nil {
		t.Fatal(err)
	}
	insertRecord(t, st, "X", 200)

	sub := models.Subscription{
		SubscriberID: "user-1",
		Enabled:      true,
		Threshold:    150,
		EmailAlerts:  true,
		SMSAlerts:    true,
	}
	if err := st.UpsertSubscription(sub); err != nil {
		t.Fatal(err)
	}

	email := &fakeNotifier{method: "email"}
	sms := &fakeNotifier{method: "sms"}
	report := NewEvaluator(st, email, sms).Run(context.Background())

	if report.Notified != 2 {
		t.Fatalf("report = %+v, want 2 notified (email + sms)", report)
	}
	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Errorf("email=%d sms=%d, want 1 each", len(email.sent), len(sms.sent))
	}
}
