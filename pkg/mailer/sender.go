package mailer

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// SenderConfig picks the outbound provider. MAIL_PROVIDER is "mailgun" or "sendgrid".
type SenderConfig struct {
	Enabled  bool
	Provider string

	MailgunDomain string
	MailgunAPIKey string
	MailgunSender string

	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string
}

// NewSender returns the configured provider, or a LogSender when sending is
// disabled.
func NewSender(c SenderConfig, logger *logrus.Logger) (Sender, error) {
	if !c.Enabled {
		return LogSender{Logger: logger}, nil
	}
	switch strings.ToLower(c.Provider) {
	case "", "mailgun":
		if c.MailgunDomain == "" || c.MailgunAPIKey == "" || c.MailgunSender == "" {
			return nil, fmt.Errorf("mailer: mailgun not configured")
		}
		return NewMailgun(c.MailgunDomain, c.MailgunAPIKey, c.MailgunSender), nil
	case "sendgrid":
		sg := NewSendGrid(c.SendGridAPIKey, c.SendGridFrom, c.SendGridFromName)
		if sg == nil || c.SendGridFrom == "" {
			return nil, fmt.Errorf("mailer: sendgrid not configured")
		}
		return sg, nil
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", c.Provider)
	}
}
