// Package services содержит бизнес-логику гарантий: создание, чтение
// с пересчетом статуса, продление, повторный анализ, отметки claim/void,
// расписание уведомлений и настройки пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/warranty-tracker/internal/cache"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Repository определяет методы хранилища, нужные сервису.
type Repository interface {
	CreateWarranty(ctx context.Context, w *models.Warranty) error
	GetWarranty(ctx context.Context, id string) (*models.Warranty, error)
	UpdateWarranty(ctx context.Context, w *models.Warranty) error
	GetPreferences(ctx context.Context, userID string) (*models.WarrantyPreferences, error)
	InsertPreferencesIfAbsent(ctx context.Context, p models.WarrantyPreferences) error
	UpsertPreferences(ctx context.Context, p models.WarrantyPreferences) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// WarrantyService реализует операции над гарантиями пользователя.
type WarrantyService struct {
	repo  Repository
	cache Cache
	calc  *warranty.Calculator
	log   *slog.Logger
}

// NewWarrantyService создает новый экземпляр WarrantyService.
func NewWarrantyService(repo Repository, cache Cache, calc *warranty.Calculator, log *slog.Logger) *WarrantyService {
	return &WarrantyService{
		repo:  repo,
		cache: cache,
		calc:  calc,
		log:   log,
	}
}

// Create создает гарантию. Длительность берется из DurationMonths, а если
// оно не задано, из текстового Duration. Текст "lifetime" делает гарантию пожизненной.
func (s *WarrantyService) Create(ctx context.Context, userID string, req models.CreateWarrantyRequest) (*models.WarrantyView, error) {
	const op = "services.WarrantyService.Create"

	wt := models.WarrantyType(req.WarrantyType)
	if !wt.Valid() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidWarrantyType)
	}
	start, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidStartDate)
	}

	months := req.DurationMonths
	if months == nil && req.Duration != "" {
		if warranty.IsLifetimeDuration(req.Duration) {
			wt = models.TypeLifetime
		} else if m, ok := warranty.ParseDurationToMonths(req.Duration); ok {
			months = &m
		}
	}
	if months == nil && wt != models.TypeLifetime {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidDuration)
	}

	return s.create(ctx, op, userID, req.ProductID, req.ProductName, wt, start, months, nil)
}

// CreateFromAnalysis создает гарантию из данных, извлеченных из документа.
// Без даты покупки берется сегодняшняя дата, без типа — MANUFACTURER.
func (s *WarrantyService) CreateFromAnalysis(ctx context.Context, userID string, req models.AnalyzedWarrantyRequest) (*models.WarrantyView, error) {
	const op = "services.WarrantyService.CreateFromAnalysis"

	start := s.calc.Now().UTC().Truncate(24 * time.Hour)
	if req.PurchaseDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidStartDate)
		}
		start = parsed
	}

	wt := models.TypeManufacturer
	if req.WarrantyType != "" {
		wt = models.WarrantyType(req.WarrantyType)
		if !wt.Valid() {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidWarrantyType)
		}
	}

	wt, months, err := analyzedDuration(req.Duration, wt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.create(ctx, op, userID, req.ProductID, req.ProductName, wt, start, months, analysisOrNil(req.Analysis))
}

// Reanalyze заменяет условия гарантии результатом повторного анализа документа:
// дата окончания пересчитывается из нового текста срока, прежние продления сбрасываются.
// Флаги claimed и void не меняются.
func (s *WarrantyService) Reanalyze(ctx context.Context, userID, id string, req models.ReanalyzeWarrantyRequest) (*models.WarrantyView, error) {
	const op = "services.WarrantyService.Reanalyze"

	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := s.calc.Now().UTC().Truncate(24 * time.Hour)
	if w.StartDate != nil {
		start = *w.StartDate
	}
	if req.PurchaseDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidStartDate)
		}
		start = parsed
	}

	wt := w.Type
	if req.WarrantyType != "" {
		wt = models.WarrantyType(req.WarrantyType)
		if !wt.Valid() {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidWarrantyType)
		}
	} else if wt == models.TypeLifetime {
		// пожизненной гарантию делал прежний текст срока
		wt = models.TypeManufacturer
	}

	wt, months, err := analyzedDuration(req.Duration, wt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var expiry *time.Time
	if months != nil {
		expiry = s.calc.CalculateEndDate(start, *months, wt)
	}

	w.Type = wt
	w.StartDate = &start
	w.ExpiryDate = expiry
	w.DurationMonths = months
	w.OriginalEndDate = nil
	w.ExtendedBy = 0
	w.ExtensionDate = nil
	w.RenewalCount = 0
	w.Analysis = analysisOrNil(req.Analysis)
	w.Status = s.calc.DetermineStatus(w.ExpiryDate, w.Type, w.IsClaimed, w.IsVoid)
	w.UpdatedAt = s.calc.Now()
	if err := s.save(ctx, w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("warranty reanalyzed", slog.String("id", id), slog.String("type", string(wt)))

	view := s.calc.View(*w)
	return &view, nil
}

// analyzedDuration разбирает текст срока из анализа документа.
// "lifetime" делает гарантию пожизненной независимо от wt.
func analyzedDuration(text string, wt models.WarrantyType) (models.WarrantyType, *int, error) {
	switch m, ok := warranty.ParseDurationToMonths(text); {
	case warranty.IsLifetimeDuration(text):
		return models.TypeLifetime, nil, nil
	case ok:
		return wt, &m, nil
	case wt == models.TypeLifetime:
		return wt, nil, nil
	}
	return wt, nil, models.ErrInvalidDuration
}

func analysisOrNil(a models.Analysis) *models.Analysis {
	if a.IsZero() {
		return nil
	}
	return &a
}

func (s *WarrantyService) create(ctx context.Context, op, userID string, productID *string, productName string,
	wt models.WarrantyType, start time.Time, months *int, analysis *models.Analysis) (*models.WarrantyView, error) {
	if wt == models.TypeLifetime {
		months = nil
	}

	var expiry *time.Time
	if months != nil {
		expiry = s.calc.CalculateEndDate(start, *months, wt)
	}

	now := s.calc.Now()
	w := models.Warranty{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProductID:      productID,
		ProductName:    productName,
		Type:           wt,
		Status:         s.calc.DetermineStatus(expiry, wt, false, false),
		StartDate:      &start,
		ExpiryDate:     expiry,
		DurationMonths: months,
		Analysis:       analysis,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateWarranty(ctx, &w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new warranty", slog.String("id", w.ID), slog.String("type", string(wt)))

	s.cacheWarranty(ctx, &w)
	view := s.calc.View(w)
	return &view, nil
}

// Get возвращает гарантию пользователя со статусом и оставшимися днями на текущий момент.
// Чужая гарантия неотличима от несуществующей.
func (s *WarrantyService) Get(ctx context.Context, userID, id string) (*models.WarrantyView, error) {
	const op = "services.WarrantyService.Get"

	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view := s.calc.View(*w)
	return &view, nil
}

// Extend продлевает гарантию на months месяцев. Для пожизненной гарантии
// возвращает результат с Applied = false и ничего не сохраняет.
func (s *WarrantyService) Extend(ctx context.Context, userID, id string, months int) (*models.ExtensionResult, error) {
	const op = "services.WarrantyService.Extend"

	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.calc.ApplyExtension(w, months)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !res.Applied {
		s.log.Info("extension skipped for lifetime warranty", slog.String("id", id))
		return &res, nil
	}

	w.UpdatedAt = s.calc.Now()
	if err := s.save(ctx, w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("warranty extended", slog.String("id", id), slog.Int("months", months),
		slog.Int("renewal_count", w.RenewalCount))
	return &res, nil
}

// MarkClaimed отмечает гарантию как использованную. Флаг необратим.
func (s *WarrantyService) MarkClaimed(ctx context.Context, userID, id string) (*models.WarrantyView, error) {
	const op = "services.WarrantyService.MarkClaimed"
	view, err := s.setFlag(ctx, userID, id, func(w *models.Warranty) { w.IsClaimed = true })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return view, nil
}

// MarkVoid аннулирует гарантию. Флаг необратим.
func (s *WarrantyService) MarkVoid(ctx context.Context, userID, id string) (*models.WarrantyView, error) {
	const op = "services.WarrantyService.MarkVoid"
	view, err := s.setFlag(ctx, userID, id, func(w *models.Warranty) { w.IsVoid = true })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return view, nil
}

func (s *WarrantyService) setFlag(ctx context.Context, userID, id string, set func(*models.Warranty)) (*models.WarrantyView, error) {
	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	set(w)
	w.Status = s.calc.DetermineStatus(w.ExpiryDate, w.Type, w.IsClaimed, w.IsVoid)
	w.UpdatedAt = s.calc.Now()
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	view := s.calc.View(*w)
	return &view, nil
}

// Schedule возвращает будущие уведомления по гарантии с учетом настроек владельца.
func (s *WarrantyService) Schedule(ctx context.Context, userID, id string) (models.NotificationSchedule, error) {
	const op = "services.WarrantyService.Schedule"

	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.calc.BuildSchedule(*w, *prefs), nil
}

// Preferences возвращает настройки пользователя, создавая их со значениями
// по умолчанию при первом обращении.
func (s *WarrantyService) Preferences(ctx context.Context, userID string) (*models.WarrantyPreferences, error) {
	const op = "services.WarrantyService.Preferences"

	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, models.ErrPreferencesNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defaults := models.DefaultPreferences(userID)
	now := s.calc.Now()
	defaults.CreatedAt, defaults.UpdatedAt = now, now
	if err := s.repo.InsertPreferencesIfAbsent(ctx, defaults); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created default preferences", slog.String("user_id", userID))

	// другой запрос мог создать запись раньше
	prefs, err = s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return prefs, nil
}

// UpdatePreferences перезаписывает настройки пользователя.
func (s *WarrantyService) UpdatePreferences(ctx context.Context, userID string, req models.UpdatePreferencesRequest) (*models.WarrantyPreferences, error) {
	const op = "services.WarrantyService.UpdatePreferences"

	current, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customDays := req.CustomDays
	if customDays == nil {
		customDays = []int{}
	}
	tz := req.Timezone
	if tz == "" {
		tz = current.Timezone
	}

	updated := models.WarrantyPreferences{
		UserID:                   userID,
		NotificationEmail:        req.NotificationEmail,
		EmailEnabled:             req.EmailEnabled,
		InAppEnabled:             req.InAppEnabled,
		SMSEnabled:               req.SMSEnabled,
		PushEnabled:              req.PushEnabled,
		Reminder90Days:           req.Reminder90Days,
		Reminder30Days:           req.Reminder30Days,
		Reminder7Days:            req.Reminder7Days,
		Reminder1Day:             req.Reminder1Day,
		CustomDays:               customDays,
		DailyDigest:              req.DailyDigest,
		WeeklyDigest:             req.WeeklyDigest,
		MonthlyDigest:            req.MonthlyDigest,
		LifetimeWarrantyReminder: req.LifetimeWarrantyReminder,
		QuietHoursStart:          req.QuietHoursStart,
		QuietHoursEnd:            req.QuietHoursEnd,
		Timezone:                 tz,
		CreatedAt:                current.CreatedAt,
		UpdatedAt:                s.calc.Now(),
	}
	if err := s.repo.UpsertPreferences(ctx, updated); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &updated, nil
}

// load читает гарантию через кеш и проверяет владельца.
func (s *WarrantyService) load(ctx context.Context, userID, id string) (*models.Warranty, error) {
	var cached models.Warranty
	found, err := s.cache.Get(ctx, cache.WarrantyKey(id), &cached)
	if err != nil {
		s.log.Warn("failed to read warranty from cache", slog.String("id", id), sl.Err(err))
	}

	w := &cached
	if !found || err != nil {
		w, err = s.repo.GetWarranty(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheWarranty(ctx, w)
	}

	if w.UserID != userID {
		return nil, models.ErrWarrantyNotFound
	}
	return w, nil
}

func (s *WarrantyService) save(ctx context.Context, w *models.Warranty) error {
	if err := s.repo.UpdateWarranty(ctx, w); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cache.WarrantyKey(w.ID)); err != nil {
		s.log.Warn("failed to invalidate warranty cache", slog.String("id", w.ID), sl.Err(err))
	}
	return nil
}

func (s *WarrantyService) cacheWarranty(ctx context.Context, w *models.Warranty) {
	if err := s.cache.Set(ctx, cache.WarrantyKey(w.ID), w, 0); err != nil {
		s.log.Warn("failed to cache warranty", slog.String("id", w.ID), sl.Err(err))
	}
}
