package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid sends email through the SendGrid v3 API.
type SendGrid struct {
	client   *sendgrid.Client
	FromMail string
	FromName string
}

func NewSendGrid(apiKey, fromEmail, fromName string) *SendGrid {
	if apiKey == "" {
		return nil
	}
	if fromName == "" {
		fromName = "Physio Booking"
	}
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		FromMail: fromEmail,
		FromName: fromName,
	}
}

func (s *SendGrid) Send(ctx context.Context, to, subject, text, html string) error {
	if s == nil || s.client == nil {
		return errors.New("mailer: sendgrid client not configured")
	}
	if html == "" {
		html = text
	}
	msg := mail.NewSingleEmail(mail.NewEmail(s.FromName, s.FromMail), subject, mail.NewEmail("", to), text, html)

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := s.client.SendWithContext(c, msg)
	if err != nil {
		return fmt.Errorf("mailer: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailer: sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
