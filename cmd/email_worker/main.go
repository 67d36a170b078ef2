package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/config"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	"github.com/oksasatya/go-physio-booking/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	sender, err := mailer.NewSender(mailer.SenderConfig{
		Enabled:          cfg.MailSendEnabled,
		Provider:         cfg.MailProvider,
		MailgunDomain:    cfg.MailgunDomain,
		MailgunAPIKey:    cfg.MailgunAPIKey,
		MailgunSender:    cfg.MailgunSender,
		SendGridAPIKey:   cfg.SendGridAPIKey,
		SendGridFrom:     cfg.SendGridFrom,
		SendGridFromName: cfg.SendGridFromName,
	}, logger)
	if err != nil {
		log.Fatalf("mail sender: %v", err)
	}
	if !cfg.MailSendEnabled {
		logger.Warn("MAIL_SEND_ENABLED=false; jobs are consumed and logged, no real emails will be sent")
	}

	q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer q.Close()

	// prefetch for fair dispatch across workers
	msgs, err := q.Consume(16)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx := context.Background()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			handle(ctx, logger, sender, msg)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle acks delivered jobs, drops malformed ones and requeues send failures.
func handle(ctx context.Context, logger *logrus.Logger, sender mailer.Sender, msg amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.WithError(err).Warn("bad message")
		_ = msg.Nack(false, false)
		return
	}
	fields := logrus.Fields{"to": job.To, "template": job.Template}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := mailer.Deliver(c, sender, job); err != nil {
		if errorIsPermanent(err) {
			logger.WithError(err).WithFields(fields).Error("email dropped")
			_ = msg.Nack(false, false)
			return
		}
		logger.WithError(err).WithFields(fields).Warn("send failed, requeued")
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	logger.WithFields(fields).Debug("email sent")
	_ = msg.Ack(false)
}

// errorIsPermanent reports errors a retry cannot fix.
func errorIsPermanent(err error) bool {
	return errors.Is(err, mailer.ErrRender) || errors.Is(err, mailer.ErrEmptyRecipient)
}
