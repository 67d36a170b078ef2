package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// JobPublisher is satisfied by helpers.RabbitQueue.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier enqueues email jobs for cmd/email_worker.
type QueueNotifier struct {
	Publisher JobPublisher
	Logger    *logrus.Logger
}

func NewQueueNotifier(p JobPublisher, logger *logrus.Logger) *QueueNotifier {
	return &QueueNotifier{Publisher: p, Logger: logger}
}

func (n *QueueNotifier) Notify(ctx context.Context, to, template string, data map[string]any) error {
	if to == "" {
		return ErrEmptyRecipient
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.Publisher.PublishJSON(c, EmailJob{To: to, Template: template, Data: data}); err != nil {
		return err
	}
	if n.Logger != nil {
		n.Logger.WithFields(logrus.Fields{"to": to, "template": template}).Debug("email job queued")
	}
	return nil
}

// DirectNotifier renders and sends in-process, for deployments without RabbitMQ.
type DirectNotifier struct {
	Sender Sender
}

func (n *DirectNotifier) Notify(ctx context.Context, to, template string, data map[string]any) error {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return Deliver(c, n.Sender, EmailJob{To: to, Template: template, Data: data})
}

// LogSender writes emails to the log instead of sending them (MAIL_SEND_ENABLED=false).
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, _, _ string) error {
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail sending disabled; email not sent")
	}
	return nil
}
