package warranty

import (
	"time"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/month"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Extend вычисляет новую дату окончания, прибавляя extensionMonths к текущей.
//
// Для LIFETIME возвращает результат с Applied = false и без ошибки: продлевать нечего.
// Если у непожизненной гарантии нет даты окончания, возвращает ErrNoExpiryToExtend.
// OriginalEndDate в результате — дата до этого продления; первую исходную дату
// хранит вызывающий (см. ApplyExtension).
func Extend(currentExpiryDate *time.Time, extensionMonths int, wt models.WarrantyType) (models.ExtensionResult, error) {
	if wt == models.TypeLifetime {
		return models.ExtensionResult{Applied: false, NewExpiryDate: nil, ExtendedBy: 0}, nil
	}
	if currentExpiryDate == nil {
		return models.ExtensionResult{}, models.ErrNoExpiryToExtend
	}
	if extensionMonths <= 0 {
		return models.ExtensionResult{}, models.ErrInvalidExtension
	}

	newExpiry := month.AddMonths(*currentExpiryDate, extensionMonths)
	original := *currentExpiryDate

	return models.ExtensionResult{
		Applied:         true,
		NewExpiryDate:   &newExpiry,
		OriginalEndDate: &original,
		ExtendedBy:      extensionMonths,
	}, nil
}

// ApplyExtension продлевает гарантию w на месте и ведет аудит:
// OriginalEndDate сохраняет самую первую дату окончания, ExtendedBy накапливается,
// RenewalCount растет на единицу за каждое продление, статус пересчитывается.
// Возвращаемый ExtensionResult содержит накопленные значения.
func ApplyExtension(now time.Time, w *models.Warranty, months int) (models.ExtensionResult, error) {
	res, err := Extend(w.ExpiryDate, months, w.Type)
	if err != nil || !res.Applied {
		return res, err
	}

	if w.OriginalEndDate == nil {
		w.OriginalEndDate = res.OriginalEndDate
	}
	w.ExpiryDate = res.NewExpiryDate
	w.ExtendedBy += res.ExtendedBy
	w.RenewalCount++
	if w.DurationMonths != nil {
		d := *w.DurationMonths + months
		w.DurationMonths = &d
	}
	extendedAt := now
	w.ExtensionDate = &extendedAt
	w.Status = StatusOf(now, *w)

	return models.ExtensionResult{
		Applied:         true,
		NewExpiryDate:   w.ExpiryDate,
		OriginalEndDate: w.OriginalEndDate,
		ExtendedBy:      w.ExtendedBy,
	}, nil
}
