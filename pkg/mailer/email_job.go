package mailer

import (
	"context"
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/go-physio-booking/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "verify_email", "appointment_booked"
	Data     map[string]any `json:"data,omitempty"`
}

var (
	ErrEmptyRecipient = errors.New("mailer: empty recipient")
	ErrRender         = errors.New("mailer: render failed")
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Deliver renders job (when it names a template) and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if job.To == "" {
		return ErrEmptyRecipient
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		if _, ok := job.Data["RecipientEmail"]; !ok {
			job.Data["RecipientEmail"] = job.To
		}
		var err error
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRender, job.Template, err)
		}
	}
	return s.Send(ctx, job.To, subject, text, html)
}
