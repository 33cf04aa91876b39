// Package alert evaluates stored AQI readings against subscriber
// thresholds and hands matches to the configured notifiers.
package alert

import (
	"context"
	"log"

	"github.com/rgoyal/delhiair/internal/aqi"
	"github.com/rgoyal/delhiair/internal/metrics"
	"github.com/rgoyal/delhiair/internal/models"
	"github.com/rgoyal/delhiair/internal/store"
)

// Notifier delivers one alert to one subscriber. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, sub models.Subscription, district string, value int, category aqi.Category) error
	Method() string
}

// Evaluator checks the latest reading per district against each enabled
// subscription. Matches are re-notified on every run the condition still
// holds; there is no suppression window.
type Evaluator struct {
	store *store.Store
	email Notifier
	sms   Notifier
}

func NewEvaluator(st *store.Store, email, sms Notifier) *Evaluator {
	return &Evaluator{store: st, email: email, sms: sms}
}

// Run executes one evaluation pass. A delivery failure for one
// subscriber or method is counted and never aborts the run.
func (e *Evaluator) Run(ctx context.Context) models.AlertReport {
	var report models.AlertReport

	subs, err := e.store.GetEnabledSubscriptions()
	if err != nil {
		log.Printf("alerts: load subscriptions: %v", err)
		return report
	}
	if len(subs) == 0 {
		log.Println("alerts: no enabled subscriptions")
		return report
	}

	registry, err := e.store.GetDistricts()
	if err != nil {
		log.Printf("alerts: load districts: %v", err)
		return report
	}

	for _, sub := range subs {
		districts := sub.Districts
		if len(districts) == 0 {
			districts = districtNames(registry)
		}

		for _, district := range districts {
			latest, err := e.store.Latest(district)
			if err != nil {
				log.Printf("alerts: latest %s: %v", district, err)
				report.Errored++
				continue
			}
			if latest == nil || latest.AQI < sub.Threshold {
				continue
			}

			for _, n := range e.notifiersFor(sub) {
				if err := n.Notify(ctx, sub, district, latest.AQI, latest.Category); err != nil {
					log.Printf("alerts: %s to %s for %s: %v", n.Method(), sub.SubscriberID, district, err)
					metrics.AlertErrorsTotal.Inc()
					report.Errored++
					continue
				}
				metrics.AlertsSentTotal.WithLabelValues(n.Method()).Inc()
				report.Notified++
			}
		}
	}

	log.Printf("alerts: run complete, %d notified, %d errored", report.Notified, report.Errored)
	return report
}

func (e *Evaluator) notifiersFor(sub models.Subscription) []Notifier {
	var notifiers []Notifier
	if sub.EmailAlerts && e.email != nil {
		notifiers = append(notifiers, e.email)
	}
	if sub.SMSAlerts && e.sms != nil {
		notifiers = append(notifiers, e.sms)
	}
	return notifiers
}

func districtNames(districts []models.District) []string {
	names := make([]string, 0, len(districts))
	for _, d := range districts {
		names = append(names, d.Name)
	}
	return names
}
