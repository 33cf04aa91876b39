// Package notify delivers alert notifications to subscribers over email
// and SMS.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/smtp"
	"text/template"
	"time"

	"github.com/rgoyal/delhiair/internal/aqi"
	"github.com/rgoyal/delhiair/internal/config"
	"github.com/rgoyal/delhiair/internal/models"
)

// EmailNotifier sends alert emails over SMTP. An unconfigured SMTP setup
// logs the message and reports success, so local runs work without
// credentials.
type EmailNotifier struct {
	cfg config.SMTPConfig
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (e *EmailNotifier) Method() string { return "email" }

var emailTemplate = template.Must(template.New("alert").Parse(`
Air Quality Alert
=================

The air quality in {{.District}} has exceeded your alert threshold.

Current AQI: {{.AQI}}
Category: {{.Category}}

Health recommendations:
{{range .Recommendations}}  - {{.}}
{{end}}
Stay safe and take necessary precautions.

---
Delhi Pollution Tracker
`))

type emailData struct {
	District        string
	AQI             int
	Category        aqi.Category
	Recommendations []string
}

func (e *EmailNotifier) Notify(ctx context.Context, sub models.Subscription, district string, value int, category aqi.Category) error {
	if sub.Email == "" {
		return fmt.Errorf("subscriber %s has no email address", sub.SubscriberID)
	}

	subject := fmt.Sprintf("Air Quality Alert: %s - AQI %d", district, value)

	var buf bytes.Buffer
	data := emailData{
		District:        district,
		AQI:             value,
		Category:        category,
		Recommendations: Recommendations(value),
	}
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	return e.send(ctx, sub.Email, subject, buf.String())
}

func (e *EmailNotifier) send(ctx context.Context, to, subject, body string) error {
	if e.cfg.Username == "" || e.cfg.Password == "" {
		log.Printf("notify: SMTP not configured, skipping email to %s: %s", to, subject)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := fmt.Sprintf("From: %s\r\n", e.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", to)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// Recommendations returns the health guidance lines for an AQI value,
// one band at a time from Good up to Hazardous.
func Recommendations(value int) []string {
	switch {
	case value <= 50:
		return []string{"Air quality is satisfactory. Enjoy outdoor activities!"}
	case value <= 100:
		return []string{"Air quality is acceptable. Sensitive individuals should limit prolonged outdoor exertion."}
	case value <= 150:
		return []string{
			"Reduce prolonged or heavy outdoor exertion",
			"Wear a mask if going outside",
			"Keep windows closed",
		}
	case value <= 200:
		return []string{
			"Avoid prolonged outdoor activities",
			"Wear N95 masks when outside",
			"Use air purifiers indoors",
			"Keep windows and doors closed",
		}
	case value <= 300:
		return []string{
			"Avoid all outdoor activities",
			"Keep children and elderly indoors",
			"Use air purifiers continuously",
			"Wear N95/N99 masks if you must go outside",
		}
	default:
		return []string{
			"Stay indoors at all times",
			"Avoid all physical activity",
			"Keep air purifiers running",
			"Consult a doctor if you experience respiratory issues",
		}
	}
}
