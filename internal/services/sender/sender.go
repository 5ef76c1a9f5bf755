// Package services содержит доставку уведомлений о гарантиях по электронной почте.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
	"github.com/magabrotheeeer/warranty-tracker/internal/rabbitmq"
)

// Recorder получает исходы отправки писем.
type Recorder interface {
	ObserveEmail(outcome string)
}

// SenderService отправляет письма по событиям из очереди.
type SenderService struct {
	transport smtp.TransportInterface
	limiter   *rate.Limiter
	rec       Recorder
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
// limiter ограничивает частоту SMTP сессий; nil — без ограничения.
func NewSenderService(transport smtp.TransportInterface, limiter *rate.Limiter, rec Recorder, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		limiter:   limiter,
		rec:       rec,
		log:       log,
	}
}

// HandleEvent разбирает models.NotificationEvent и отправляет письмо.
// Невалидные сообщения возвращаются с ошибкой, обернутой в rabbitmq.ErrDrop.
func (s *SenderService) HandleEvent(ctx context.Context, body []byte) error {
	const op = "services.SenderService.HandleEvent"

	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}

	log := s.log.With(
		slog.String("warranty_id", event.WarrantyID),
		slog.String("type", string(event.Type)),
	)

	if !event.EmailEnabled || event.Email == "" {
		log.Debug("email notifications disabled for user, skipping")
		s.observe("skipped")
		return nil
	}

	subject, text, ok := composeMessage(event)
	if !ok {
		log.Error("unsupported notification type")
		return fmt.Errorf("%s: unsupported notification type %q: %w", op, event.Type, rabbitmq.ErrDrop)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.sendEmail([]string{event.Email}, subject, text); err != nil {
		s.observe("failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	s.observe("sent")
	return nil
}

func composeMessage(event models.NotificationEvent) (string, string, bool) {
	product := event.ProductName
	if product == "" {
		product = "ваш товар"
	}
	expiry := event.ExpiryDate.Format(models.DateLayout)

	switch event.Type {
	case models.NotificationExpiry90Days, models.NotificationExpiry30Days,
		models.NotificationExpiry7Days, models.NotificationExpiry1Day, models.NotificationCustom:
		subject := fmt.Sprintf("Гарантия на %s истекает через %d дн.", product, event.DaysBeforeExpiry)
		text := fmt.Sprintf("Здравствуйте!\n\nГарантия на %s заканчивается %s.\n\n"+
			"Если с товаром есть проблемы, оформите обращение по гарантии до этой даты.",
			product, expiry)
		return subject, text, true
	case models.NotificationExpired:
		subject := fmt.Sprintf("Гарантия на %s истекла", product)
		text := fmt.Sprintf("Здравствуйте!\n\nГарантия на %s закончилась %s.\n\n"+
			"Проверьте, можно ли продлить ее у производителя или продавца.",
			product, expiry)
		return subject, text, true
	case models.NotificationRenewalAvailable:
		subject := fmt.Sprintf("Доступно продление гарантии на %s", product)
		text := fmt.Sprintf("Здравствуйте!\n\nДля %s доступно продление гарантии. Текущий срок заканчивается %s.",
			product, expiry)
		return subject, text, true
	case models.NotificationClaimReminder:
		subject := fmt.Sprintf("Напоминание об обращении по гарантии на %s", product)
		text := fmt.Sprintf("Здравствуйте!\n\nНе забудьте завершить обращение по гарантии на %s.", product)
		return subject, text, true
	}
	return "", "", false
}

func (s *SenderService) observe(outcome string) {
	if s.rec != nil {
		s.rec.ObserveEmail(outcome)
	}
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.From()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
