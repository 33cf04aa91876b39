package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/rgoyal/delhiair/internal/aqi"
	"github.com/rgoyal/delhiair/internal/models"
)

// SMSNotifier logs the alert instead of sending it. No SMS gateway is
// wired up yet; the interface keeps the evaluator agnostic about that.
type SMSNotifier struct{}

func NewSMSNotifier() *SMSNotifier { return &SMSNotifier{} }

func (s *SMSNotifier) Method() string { return "sms" }

func (s *SMSNotifier) Notify(ctx context.Context, sub models.Subscription, district string, value int, category aqi.Category) error {
	if sub.Phone == "" {
		return fmt.Errorf("subscriber %s has no phone number", sub.SubscriberID)
	}
	log.Printf("notify: SMS to %s: %s AQI %d (%s)", sub.Phone, district, value, category)
	return nil
}
