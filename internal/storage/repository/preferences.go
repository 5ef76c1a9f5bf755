package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// GetPreferences возвращает настройки пользователя или models.ErrPreferencesNotFound.
func (s *Storage) GetPreferences(ctx context.Context, userID string) (*models.WarrantyPreferences, error) {
	const op = "storage.GetPreferences"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT user_id, notification_email, email_enabled, in_app_enabled, sms_enabled, push_enabled,
				reminder_90_days, reminder_30_days, reminder_7_days, reminder_1_day, custom_days,
				daily_digest, weekly_digest, monthly_digest, lifetime_warranty_reminder,
				quiet_hours_start, quiet_hours_end, timezone, created_at, updated_at
			  FROM warranty_preferences WHERE user_id = $1`

	var (
		p          models.WarrantyPreferences
		customDays string
	)
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.NotificationEmail, &p.EmailEnabled, &p.InAppEnabled, &p.SMSEnabled, &p.PushEnabled,
		&p.Reminder90Days, &p.Reminder30Days, &p.Reminder7Days, &p.Reminder1Day, &customDays,
		&p.DailyDigest, &p.WeeklyDigest, &p.MonthlyDigest, &p.LifetimeWarrantyReminder,
		&p.QuietHoursStart, &p.QuietHoursEnd, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPreferencesNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.CustomDays, err = models.DecodeCustomDays(customDays); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// InsertPreferencesIfAbsent создает настройки, если у пользователя их еще нет.
// Существующая запись не меняется.
func (s *Storage) InsertPreferencesIfAbsent(ctx context.Context, p models.WarrantyPreferences) error {
	const op = "storage.InsertPreferencesIfAbsent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	if _, err := s.DB.ExecContext(ctx, upsertPreferencesQuery+` DO NOTHING`, preferencesArgs(p)...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertPreferences создает или полностью перезаписывает настройки пользователя.
func (s *Storage) UpsertPreferences(ctx context.Context, p models.WarrantyPreferences) error {
	const op = "storage.UpsertPreferences"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := upsertPreferencesQuery + ` DO UPDATE SET
				notification_email = EXCLUDED.notification_email,
				email_enabled = EXCLUDED.email_enabled,
				in_app_enabled = EXCLUDED.in_app_enabled,
				sms_enabled = EXCLUDED.sms_enabled,
				push_enabled = EXCLUDED.push_enabled,
				reminder_90_days = EXCLUDED.reminder_90_days,
				reminder_30_days = EXCLUDED.reminder_30_days,
				reminder_7_days = EXCLUDED.reminder_7_days,
				reminder_1_day = EXCLUDED.reminder_1_day,
				custom_days = EXCLUDED.custom_days,
				daily_digest = EXCLUDED.daily_digest,
				weekly_digest = EXCLUDED.weekly_digest,
				monthly_digest = EXCLUDED.monthly_digest,
				lifetime_warranty_reminder = EXCLUDED.lifetime_warranty_reminder,
				quiet_hours_start = EXCLUDED.quiet_hours_start,
				quiet_hours_end = EXCLUDED.quiet_hours_end,
				timezone = EXCLUDED.timezone,
				updated_at = EXCLUDED.updated_at`
	if _, err := s.DB.ExecContext(ctx, query, preferencesArgs(p)...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

const upsertPreferencesQuery = `INSERT INTO warranty_preferences (user_id, notification_email,
				email_enabled, in_app_enabled, sms_enabled, push_enabled,
				reminder_90_days, reminder_30_days, reminder_7_days, reminder_1_day, custom_days,
				daily_digest, weekly_digest, monthly_digest, lifetime_warranty_reminder,
				quiet_hours_start, quiet_hours_end, timezone, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			  ON CONFLICT (user_id)`

func preferencesArgs(p models.WarrantyPreferences) []any {
	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return []any{
		p.UserID, p.NotificationEmail,
		p.EmailEnabled, p.InAppEnabled, p.SMSEnabled, p.PushEnabled,
		p.Reminder90Days, p.Reminder30Days, p.Reminder7Days, p.Reminder1Day, models.EncodeCustomDays(p.CustomDays),
		p.DailyDigest, p.WeeklyDigest, p.MonthlyDigest, p.LifetimeWarrantyReminder,
		p.QuietHoursStart, p.QuietHoursEnd, tz, p.CreatedAt, p.UpdatedAt,
	}
}
