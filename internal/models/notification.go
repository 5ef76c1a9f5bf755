package models

import "time"

// NotificationType вид уведомления о гарантии.
type NotificationType string

const (
	NotificationExpiry90Days     NotificationType = "EXPIRY_90_DAYS"
	NotificationExpiry30Days     NotificationType = "EXPIRY_30_DAYS"
	NotificationExpiry7Days      NotificationType = "EXPIRY_7_DAYS"
	NotificationExpiry1Day       NotificationType = "EXPIRY_1_DAY"
	NotificationCustom           NotificationType = "CUSTOM"
	NotificationExpired          NotificationType = "EXPIRED"
	NotificationRenewalAvailable NotificationType = "RENEWAL_AVAILABLE"
	NotificationClaimReminder    NotificationType = "CLAIM_REMINDER"
)

// ScheduledNotification запись расписания: когда и какое уведомление отправить.
type ScheduledNotification struct {
	Type             NotificationType `json:"type"`
	ScheduledFor     time.Time        `json:"scheduled_for"`
	DaysBeforeExpiry int              `json:"days_before_expiry"`
}

// NotificationSchedule упорядочено по ScheduledFor по возрастанию.
type NotificationSchedule []ScheduledNotification

// NotificationStatus состояние сохраненного уведомления.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// NotificationRecord уведомление, записанное в хранилище после публикации.
type NotificationRecord struct {
	ID               string
	WarrantyID       string
	UserID           string
	Type             NotificationType
	Status           NotificationStatus
	DaysBeforeExpiry int
	ScheduledFor     time.Time
	SentAt           *time.Time
}

// ExpiringWarranty кандидат на уведомление, выбранный пакетным запросом.
type ExpiringWarranty struct {
	WarrantyID         string
	UserID             string
	Email              string
	EmailEnabled       bool
	ProductName        string
	Type               WarrantyType
	ExpiryDate         time.Time
	// LastNotificationAt последняя отправка уведомления того же типа и срока.
	LastNotificationAt *time.Time
}

// NotificationEvent сообщение в очередь доставки.
type NotificationEvent struct {
	WarrantyID       string           `json:"warranty_id"`
	UserID           string           `json:"user_id"`
	Email            string           `json:"email"`
	EmailEnabled     bool             `json:"email_enabled"`
	ProductName      string           `json:"product_name"`
	Type             NotificationType `json:"type"`
	DaysBeforeExpiry int              `json:"days_before_expiry"`
	ExpiryDate       time.Time        `json:"expiry_date"`
}

// ExpiringQuery параметры выборки гарантий, истекающих в окне [From, To).
type ExpiringQuery struct {
	From             time.Time
	To               time.Time
	Type             NotificationType
	DaysBeforeExpiry int
	// Now момент запуска; уведомление того же типа, отправленное за двое суток до Now, исключает гарантию.
	Now time.Time
}
