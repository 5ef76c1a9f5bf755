// Package warranty реализует вычисления жизненного цикла гарантии:
// дату окончания, статус, продление и расписание уведомлений.
//
// Функции пакета чистые: текущее время передается параметром now,
// ввода-вывода нет, поэтому их можно вызывать из любого числа горутин.
// Calculator тонкая обертка, читающая now из clock.Clock при каждом вызове.
package warranty

import (
	"time"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/clock"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/month"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// ExpiringSoonDays сколько дней до окончания гарантия считается истекающей.
const ExpiringSoonDays = 30

// CalculateEndDate возвращает дату окончания гарантии: startDate плюс
// durationMonths календарных месяцев с прижатием к последнему дню месяца.
// Для LIFETIME возвращает nil.
func CalculateEndDate(startDate time.Time, durationMonths int, wt models.WarrantyType) *time.Time {
	if wt == models.TypeLifetime {
		return nil
	}
	end := month.AddMonths(startDate, durationMonths)
	return &end
}

// DaysRemaining возвращает число календарных дней от now до expiryDate.
// Значение отрицательное для истекших гарантий и nil для пожизненных.
func DaysRemaining(now time.Time, expiryDate *time.Time) *int {
	if expiryDate == nil {
		return nil
	}
	days := month.DaysBetween(now, *expiryDate)
	return &days
}

// DetermineStatus вычисляет статус гарантии. Правила проверяются по порядку,
// срабатывает первое: VOID, CLAIMED, LIFETIME, нет даты окончания (ACTIVE),
// истекла, истекает в ближайшие 30 дней, иначе ACTIVE.
func DetermineStatus(now time.Time, expiryDate *time.Time, wt models.WarrantyType, isClaimed, isVoid bool) models.WarrantyStatus {
	switch {
	case isVoid:
		return models.StatusVoid
	case isClaimed:
		return models.StatusClaimed
	case wt == models.TypeLifetime:
		return models.StatusLifetime
	case expiryDate == nil:
		return models.StatusActive
	}

	days := *DaysRemaining(now, expiryDate)
	switch {
	case days < 0:
		return models.StatusExpired
	case days <= ExpiringSoonDays:
		return models.StatusExpiringSoon
	default:
		return models.StatusActive
	}
}

// StatusOf вычисляет статус для записи гарантии.
func StatusOf(now time.Time, w models.Warranty) models.WarrantyStatus {
	return DetermineStatus(now, w.ExpiryDate, w.Type, w.IsClaimed, w.IsVoid)
}

// Calculator читает текущее время из часов при каждом вызове.
type Calculator struct {
	clock clock.Clock
}

// NewCalculator создает Calculator. nil означает системные часы.
func NewCalculator(c clock.Clock) *Calculator {
	if c == nil {
		c = clock.Real{}
	}
	return &Calculator{clock: c}
}

// Now возвращает текущее время по часам калькулятора.
func (c *Calculator) Now() time.Time {
	return c.clock.Now()
}

// CalculateEndDate см. пакетную функцию CalculateEndDate.
func (c *Calculator) CalculateEndDate(startDate time.Time, durationMonths int, wt models.WarrantyType) *time.Time {
	return CalculateEndDate(startDate, durationMonths, wt)
}

// DaysRemaining считает дни от текущего момента.
func (c *Calculator) DaysRemaining(expiryDate *time.Time) *int {
	return DaysRemaining(c.clock.Now(), expiryDate)
}

// DetermineStatus считает статус на текущий момент.
func (c *Calculator) DetermineStatus(expiryDate *time.Time, wt models.WarrantyType, isClaimed, isVoid bool) models.WarrantyStatus {
	return DetermineStatus(c.clock.Now(), expiryDate, wt, isClaimed, isVoid)
}

// View возвращает гарантию с пересчитанными статусом и оставшимися днями.
func (c *Calculator) View(w models.Warranty) models.WarrantyView {
	now := c.clock.Now()
	w.Status = StatusOf(now, w)
	return models.WarrantyView{
		Warranty:      w,
		DaysRemaining: DaysRemaining(now, w.ExpiryDate),
	}
}

// BuildSchedule строит расписание уведомлений на текущий момент.
func (c *Calculator) BuildSchedule(w models.Warranty, prefs models.WarrantyPreferences) models.NotificationSchedule {
	return BuildSchedule(c.clock.Now(), w.ExpiryDate, w.Type, prefs)
}

// ShouldNotifyToday см. пакетную функцию ShouldNotifyToday.
func (c *Calculator) ShouldNotifyToday(expiryDate *time.Time, wt models.WarrantyType, lastNotification *time.Time, nt models.NotificationType) bool {
	return ShouldNotifyToday(c.clock.Now(), expiryDate, wt, lastNotification, nt)
}

// ApplyExtension продлевает гарантию на текущий момент.
func (c *Calculator) ApplyExtension(w *models.Warranty, months int) (models.ExtensionResult, error) {
	return ApplyExtension(c.clock.Now(), w, months)
}
