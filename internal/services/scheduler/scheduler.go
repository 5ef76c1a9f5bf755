// Package services содержит ежедневную рассылку напоминаний об окончании гарантий.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/month"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Repository определяет методы хранилища, нужные рассылке.
type Repository interface {
	FindExpiringOn(ctx context.Context, q models.ExpiringQuery) ([]models.ExpiringWarranty, error)
	RecordNotification(ctx context.Context, rec models.NotificationRecord) error
	ListCustomDays(ctx context.Context) ([]int, error)
}

// Publisher публикует событие в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Recorder получает исходы уведомлений.
type Recorder interface {
	ObserveNotification(notificationType, outcome string)
}

// Result итог одного прохода.
type Result struct {
	Candidates int
	Published  int
	Skipped    int
	Failed     int
}

// SchedulerService находит гарантии, по которым сегодня положено
// напоминание, и публикует события для отправителя.
type SchedulerService struct {
	repo       Repository
	publisher  Publisher
	calc       *warranty.Calculator
	rec        Recorder
	log        *slog.Logger
	routingKey string

	running sync.Mutex
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo Repository, publisher Publisher, calc *warranty.Calculator, rec Recorder,
	log *slog.Logger, routingKey string) *SchedulerService {
	return &SchedulerService{
		repo:       repo,
		publisher:  publisher,
		calc:       calc,
		rec:        rec,
		log:        log,
		routingKey: routingKey,
	}
}

type pass struct {
	nt   models.NotificationType
	days int
}

// Run выполняет один проход: стандартные напоминания, уведомление в день
// окончания и пользовательские дни. Если предыдущий проход еще идет,
// возвращает ok = false.
func (s *SchedulerService) Run(ctx context.Context) (Result, bool, error) {
	const op = "services.SchedulerService.Run"

	if !s.running.TryLock() {
		s.log.Warn("notification batch already running, skipping tick")
		return Result{}, false, nil
	}
	defer s.running.Unlock()

	s.log.Info("starting warranty expiry notification batch")

	passes := make([]pass, 0, len(warranty.StandardOffsets)+1)
	for _, off := range warranty.StandardOffsets {
		passes = append(passes, pass{nt: off.Type, days: off.Days})
	}
	passes = append(passes, pass{nt: models.NotificationExpired, days: 0})

	customDays, err := s.repo.ListCustomDays(ctx)
	if err != nil {
		return Result{}, true, fmt.Errorf("%s: %w", op, err)
	}
	for _, d := range customDays {
		passes = append(passes, pass{nt: models.NotificationCustom, days: d})
	}

	var res Result
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return res, true, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.runPass(ctx, p, &res); err != nil {
			return res, true, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("notification batch finished",
		slog.Int("candidates", res.Candidates),
		slog.Int("published", res.Published),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))
	return res, true, nil
}

func (s *SchedulerService) runPass(ctx context.Context, p pass, res *Result) error {
	now := s.calc.Now().UTC()
	from := month.StartOfDay(now).AddDate(0, 0, p.days)
	candidates, err := s.repo.FindExpiringOn(ctx, models.ExpiringQuery{
		From:             from,
		To:               from.AddDate(0, 0, 1),
		Type:             p.nt,
		DaysBeforeExpiry: p.days,
		Now:              now,
	})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}
	s.log.Debug("found expiring warranties",
		slog.String("type", string(p.nt)),
		slog.Int("days", p.days),
		slog.Int("count", len(candidates)))

	for _, c := range candidates {
		res.Candidates++
		expiry := c.ExpiryDate
		now := s.calc.Now().UTC()
		if !warranty.ShouldNotifyDaysBefore(now, &expiry, c.Type, c.LastNotificationAt, p.days) {
			res.Skipped++
			s.observe(p.nt, "skipped")
			continue
		}

		record := models.NotificationRecord{
			ID:               uuid.NewString(),
			WarrantyID:       c.WarrantyID,
			UserID:           c.UserID,
			Type:             p.nt,
			Status:           models.NotificationSent,
			DaysBeforeExpiry: p.days,
			ScheduledFor:     month.StartOfDay(expiry).AddDate(0, 0, -p.days),
		}

		event := models.NotificationEvent{
			WarrantyID:       c.WarrantyID,
			UserID:           c.UserID,
			Email:            c.Email,
			EmailEnabled:     c.EmailEnabled,
			ProductName:      c.ProductName,
			Type:             p.nt,
			DaysBeforeExpiry: p.days,
			ExpiryDate:       expiry,
		}
		if err := s.publisher.Publish(ctx, s.routingKey, event); err != nil {
			s.log.Error("failed to publish notification",
				slog.String("warranty_id", c.WarrantyID), sl.Err(err))
			record.Status = models.NotificationFailed
			res.Failed++
			s.observe(p.nt, "failed")
		} else {
			sentAt := now
			record.SentAt = &sentAt
			res.Published++
			s.observe(p.nt, "published")
		}

		if err := s.repo.RecordNotification(ctx, record); err != nil {
			s.log.Error("failed to record notification",
				slog.String("warranty_id", c.WarrantyID), sl.Err(err))
		}
	}
	return nil
}

func (s *SchedulerService) observe(nt models.NotificationType, outcome string) {
	if s.rec != nil {
		s.rec.ObserveNotification(string(nt), outcome)
	}
}
