// Package month реализует календарную арифметику по месяцам с прижатием
// к последнему дню месяца и подсчет разницы в календарных днях.
package month

import "time"

// DaysIn возвращает количество дней в месяце m года year.
func DaysIn(year int, m time.Month) int {
	// нулевой день следующего месяца — последний день текущего
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths прибавляет n календарных месяцев к t.
//
// В отличие от time.AddDate, день месяца не переносится в следующий месяц:
// если в целевом месяце нет такого числа, берется его последний день.
// 31 января + 1 месяц = 28 (или 29) февраля. Время суток и локация сохраняются.
func AddMonths(t time.Time, n int) time.Time {
	year, m, day := t.Date()

	total := int(m) - 1 + n
	year += floorDiv(total, 12)
	target := time.Month(floorMod(total, 12) + 1)

	if last := DaysIn(year, target); day > last {
		day = last
	}

	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysBetween возвращает разницу в календарных днях между датами from и to
// без учета времени суток. Обе даты приводятся к локации from.
// Результат отрицательный, если to раньше from.
func DaysBetween(from, to time.Time) int {
	to = to.In(from.Location())

	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()

	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	return int(b.Sub(a).Hours() / 24)
}

// StartOfDay возвращает полночь того же календарного дня в локации t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
