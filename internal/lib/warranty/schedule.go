package warranty

import (
	"sort"
	"time"

	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// StandardOffset связывает вид напоминания с числом дней до окончания.
type StandardOffset struct {
	Type models.NotificationType
	Days int
}

// StandardOffsets стандартные напоминания в порядке убывания срока.
var StandardOffsets = []StandardOffset{
	{Type: models.NotificationExpiry90Days, Days: 90},
	{Type: models.NotificationExpiry30Days, Days: 30},
	{Type: models.NotificationExpiry7Days, Days: 7},
	{Type: models.NotificationExpiry1Day, Days: 1},
}

// Threshold возвращает число дней до окончания, при котором срабатывает
// уведомление типа nt. Для EXPIRED это 0. Для CUSTOM и прочих порога нет.
func Threshold(nt models.NotificationType) (int, bool) {
	switch nt {
	case models.NotificationExpiry90Days:
		return 90, true
	case models.NotificationExpiry30Days:
		return 30, true
	case models.NotificationExpiry7Days:
		return 7, true
	case models.NotificationExpiry1Day:
		return 1, true
	case models.NotificationExpired:
		return 0, true
	}
	return 0, false
}

// OffsetEnabled сообщает, включено ли стандартное напоминание в настройках.
func OffsetEnabled(prefs models.WarrantyPreferences, nt models.NotificationType) bool {
	switch nt {
	case models.NotificationExpiry90Days:
		return prefs.Reminder90Days
	case models.NotificationExpiry30Days:
		return prefs.Reminder30Days
	case models.NotificationExpiry7Days:
		return prefs.Reminder7Days
	case models.NotificationExpiry1Day:
		return prefs.Reminder1Day
	}
	return false
}

// BuildSchedule возвращает будущие уведомления для гарантии, отсортированные
// по времени отправки. Для пожизненных гарантий и гарантий без даты окончания
// расписание пустое. Напоминания, чей срок уже прошел, отбрасываются.
// Совпадающие даты разных типов не схлопываются.
func BuildSchedule(now time.Time, expiryDate *time.Time, wt models.WarrantyType, prefs models.WarrantyPreferences) models.NotificationSchedule {
	schedule := models.NotificationSchedule{}
	if wt == models.TypeLifetime || expiryDate == nil {
		return schedule
	}

	add := func(nt models.NotificationType, days int) {
		at := expiryDate.AddDate(0, 0, -days)
		if !at.After(now) {
			return
		}
		schedule = append(schedule, models.ScheduledNotification{
			Type:             nt,
			ScheduledFor:     at,
			DaysBeforeExpiry: days,
		})
	}

	for _, off := range StandardOffsets {
		if OffsetEnabled(prefs, off.Type) {
			add(off.Type, off.Days)
		}
	}
	for _, days := range prefs.CustomDays {
		add(models.NotificationCustom, days)
	}

	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].ScheduledFor.Before(schedule[j].ScheduledFor)
	})
	return schedule
}

// ShouldNotifyToday решает, нужно ли отправить уведомление типа nt сегодня.
//
// Срабатывает только при точном совпадении оставшихся дней с порогом типа.
// Пропущенный день (например, из-за простоя) не догоняется.
// Если последнее уведомление было менее суток назад, возвращает false.
func ShouldNotifyToday(now time.Time, expiryDate *time.Time, wt models.WarrantyType, lastNotification *time.Time, nt models.NotificationType) bool {
	threshold, ok := Threshold(nt)
	if !ok {
		return false
	}
	return ShouldNotifyDaysBefore(now, expiryDate, wt, lastNotification, threshold)
}

// ShouldNotifyDaysBefore то же, что ShouldNotifyToday, с явным порогом.
// Используется для пользовательских дней (CUSTOM).
func ShouldNotifyDaysBefore(now time.Time, expiryDate *time.Time, wt models.WarrantyType, lastNotification *time.Time, daysBefore int) bool {
	if wt == models.TypeLifetime || expiryDate == nil {
		return false
	}
	if lastNotification != nil && withinDay(now, *lastNotification) {
		return false
	}
	return *DaysRemaining(now, expiryDate) == daysBefore
}

func withinDay(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < 24*time.Hour
}
