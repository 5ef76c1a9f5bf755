package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// reminderFlags условие на настройки пользователя для каждого вида уведомления.
// Значения по умолчанию совпадают с models.DefaultPreferences, поэтому
// пользователи без сохраненных настроек тоже получают напоминания.
var reminderFlags = map[models.NotificationType]string{
	models.NotificationExpiry90Days: `COALESCE(p.reminder_90_days, false)`,
	models.NotificationExpiry30Days: `COALESCE(p.reminder_30_days, true)`,
	models.NotificationExpiry7Days:  `COALESCE(p.reminder_7_days, true)`,
	models.NotificationExpiry1Day:   `COALESCE(p.reminder_1_day, true)`,
	models.NotificationExpired:      `TRUE`,
	models.NotificationCustom:       `COALESCE(p.custom_days, '[]')::jsonb @> jsonb_build_array($4::int)`,
}

// FindExpiringOn возвращает гарантии, истекающие в окне q.From..q.To, чьи владельцы
// включили хотя бы один канал и напоминание вида q.Type.
func (s *Storage) FindExpiringOn(ctx context.Context, q models.ExpiringQuery) ([]models.ExpiringWarranty, error) {
	const op = "storage.FindExpiringOn"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	flag, ok := reminderFlags[q.Type]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported notification type %q", op, q.Type)
	}

	query := `SELECT w.id, w.user_id, COALESCE(p.notification_email, ''),
				COALESCE(p.email_enabled, true), w.product_name,
				w.warranty_type, w.expiry_date,
				(SELECT MAX(n.sent_at) FROM warranty_notifications n
				  WHERE n.warranty_id = w.id AND n.status = 'SENT'
				    AND n.type = $3 AND n.days_before_expiry = $4::int) AS last_sent
			  FROM warranties w
			  LEFT JOIN warranty_preferences p ON p.user_id = w.user_id
			  WHERE w.warranty_type <> 'LIFETIME' AND NOT w.is_claimed AND NOT w.is_void
			    AND w.expiry_date >= $1 AND w.expiry_date < $2
			    AND (COALESCE(p.email_enabled, true) OR COALESCE(p.in_app_enabled, true)
			         OR COALESCE(p.sms_enabled, false) OR COALESCE(p.push_enabled, false))
			    AND ` + flag + `
			    AND NOT EXISTS (
			        SELECT 1 FROM warranty_notifications n
			        WHERE n.warranty_id = w.id AND n.type = $3 AND n.days_before_expiry = $4::int
			          AND n.status = 'SENT' AND n.sent_at > $5::timestamptz - interval '2 days')
			  ORDER BY w.id`

	rows, err := s.DB.QueryContext(ctx, query, q.From, q.To, q.Type, q.DaysBeforeExpiry, q.Now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.ExpiringWarranty
	for rows.Next() {
		var item models.ExpiringWarranty
		if err := rows.Scan(&item.WarrantyID, &item.UserID, &item.Email, &item.EmailEnabled, &item.ProductName,
			&item.Type, &item.ExpiryDate, &item.LastNotificationAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.ExpiryDate = item.ExpiryDate.UTC()
		item.LastNotificationAt = utc(item.LastNotificationAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RecordNotification сохраняет запись об уведомлении.
func (s *Storage) RecordNotification(ctx context.Context, rec models.NotificationRecord) error {
	const op = "storage.RecordNotification"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO warranty_notifications (id, warranty_id, user_id, type, status,
				days_before_expiry, scheduled_for, sent_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.ExecContext(ctx, query,
		rec.ID, rec.WarrantyID, rec.UserID, rec.Type, rec.Status,
		rec.DaysBeforeExpiry, rec.ScheduledFor, rec.SentAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListCustomDays возвращает все различные пользовательские дни напоминаний.
func (s *Storage) ListCustomDays(ctx context.Context) ([]int, error) {
	const op = "storage.ListCustomDays"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT DISTINCT (jsonb_array_elements_text(custom_days::jsonb))::int AS days
			  FROM warranty_preferences
			  ORDER BY days`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var days []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return days, nil
}
