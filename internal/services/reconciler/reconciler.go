// Package services содержит фоновую сверку сохраненных статусов гарантий.
//
// Статус в базе — только кеш значения warranty.DetermineStatus. Сверка
// постранично пересчитывает его по текущим часам и записывает лишь
// изменившиеся значения, поэтому повторный запуск без сдвига часов
// ничего не пишет.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Repository определяет методы хранилища, нужные сверке.
type Repository interface {
	ListForReconcile(ctx context.Context, afterID string, limit int) ([]models.Warranty, error)
	UpdateStatus(ctx context.Context, id string, status models.WarrantyStatus, updatedAt time.Time) error
}

// Recorder получает сведения о переходах статусов.
type Recorder interface {
	ObserveStatusChange(from, to string)
}

// Result итог одного прохода.
type Result struct {
	Scanned int
	Updated int
	Failed  int
}

// ReconcilerService пересчитывает статусы гарантий.
type ReconcilerService struct {
	repo      Repository
	calc      *warranty.Calculator
	rec       Recorder
	log       *slog.Logger
	batchSize int

	running sync.Mutex
}

// NewReconcilerService создает новый экземпляр ReconcilerService.
func NewReconcilerService(repo Repository, calc *warranty.Calculator, rec Recorder, log *slog.Logger, batchSize int) *ReconcilerService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ReconcilerService{
		repo:      repo,
		calc:      calc,
		rec:       rec,
		log:       log,
		batchSize: batchSize,
	}
}

// Reconcile выполняет один проход. Если предыдущий проход еще идет,
// возвращает ok = false и ничего не делает.
func (s *ReconcilerService) Reconcile(ctx context.Context) (Result, bool, error) {
	const op = "services.ReconcilerService.Reconcile"

	if !s.running.TryLock() {
		s.log.Warn("reconciliation already running, skipping tick")
		return Result{}, false, nil
	}
	defer s.running.Unlock()

	var (
		res   Result
		after string
	)
	for {
		page, err := s.repo.ListForReconcile(ctx, after, s.batchSize)
		if err != nil {
			return res, true, fmt.Errorf("%s: %w", op, err)
		}
		if len(page) == 0 {
			break
		}

		for _, w := range page {
			res.Scanned++
			now := s.calc.Now()
			status := warranty.StatusOf(now, w)
			if status == w.Status {
				continue
			}
			if err := s.repo.UpdateStatus(ctx, w.ID, status, now); err != nil {
				res.Failed++
				s.log.Error("failed to update warranty status", slog.String("id", w.ID), sl.Err(err))
				continue
			}
			res.Updated++
			if s.rec != nil {
				s.rec.ObserveStatusChange(string(w.Status), string(status))
			}
		}

		after = page[len(page)-1].ID
		if len(page) < s.batchSize {
			break
		}
	}

	s.log.Info("reconciliation finished",
		slog.Int("scanned", res.Scanned),
		slog.Int("updated", res.Updated),
		slog.Int("failed", res.Failed))
	return res, true, nil
}
