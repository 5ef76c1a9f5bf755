package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// WarrantyPreferences настройки уведомлений пользователя, одна запись на пользователя.
type WarrantyPreferences struct {
	UserID            string `json:"user_id"`
	NotificationEmail string `json:"notification_email"`

	EmailEnabled bool `json:"email_enabled"`
	InAppEnabled bool `json:"in_app_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`

	Reminder90Days bool  `json:"reminder_90_days"`
	Reminder30Days bool  `json:"reminder_30_days"`
	Reminder7Days  bool  `json:"reminder_7_days"`
	Reminder1Day   bool  `json:"reminder_1_day"`
	CustomDays     []int `json:"custom_days"`

	DailyDigest   bool `json:"daily_digest"`
	WeeklyDigest  bool `json:"weekly_digest"`
	MonthlyDigest bool `json:"monthly_digest"`

	LifetimeWarrantyReminder bool `json:"lifetime_warranty_reminder"`

	QuietHoursStart *int   `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   *int   `json:"quiet_hours_end,omitempty"`
	Timezone        string `json:"timezone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationsEnabled сообщает, включен ли хотя бы один канал доставки.
func (p WarrantyPreferences) NotificationsEnabled() bool {
	return p.EmailEnabled || p.InAppEnabled || p.SMSEnabled || p.PushEnabled
}

// DefaultPreferences возвращает настройки, создаваемые при первом обращении.
func DefaultPreferences(userID string) WarrantyPreferences {
	return WarrantyPreferences{
		UserID:         userID,
		EmailEnabled:   true,
		InAppEnabled:   true,
		Reminder30Days: true,
		Reminder7Days:  true,
		Reminder1Day:   true,
		CustomDays:     []int{},
		Timezone:       "UTC",
	}
}

// UpdatePreferencesRequest тело PUT /preferences. Повторы в custom_days
// отклоняются здесь, движок расписания их не отсеивает.
type UpdatePreferencesRequest struct {
	NotificationEmail string `json:"notification_email" validate:"omitempty,email"`

	EmailEnabled bool `json:"email_enabled"`
	InAppEnabled bool `json:"in_app_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`

	Reminder90Days bool  `json:"reminder_90_days"`
	Reminder30Days bool  `json:"reminder_30_days"`
	Reminder7Days  bool  `json:"reminder_7_days"`
	Reminder1Day   bool  `json:"reminder_1_day"`
	CustomDays     []int `json:"custom_days" validate:"max=20,unique,dive,min=1,max=3650"`

	DailyDigest   bool `json:"daily_digest"`
	WeeklyDigest  bool `json:"weekly_digest"`
	MonthlyDigest bool `json:"monthly_digest"`

	LifetimeWarrantyReminder bool `json:"lifetime_warranty_reminder"`

	QuietHoursStart *int   `json:"quiet_hours_start" validate:"omitempty,min=0,max=23"`
	QuietHoursEnd   *int   `json:"quiet_hours_end" validate:"omitempty,min=0,max=23"`
	Timezone        string `json:"timezone" validate:"omitempty,max=64"`
}

// EncodeCustomDays сериализует дни напоминаний в текст для хранения.
func EncodeCustomDays(days []int) string {
	if len(days) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(days)
	return string(b)
}

// DecodeCustomDays разбирает сохраненный текст обратно в список дней.
// Пустая строка трактуется как отсутствие дней.
func DecodeCustomDays(raw string) ([]int, error) {
	const op = "models.DecodeCustomDays"
	if raw == "" {
		return []int{}, nil
	}
	var days []int
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if days == nil {
		days = []int{}
	}
	return days, nil
}
