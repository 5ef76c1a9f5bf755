package warranty

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	durationRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s*-?\s*(years?|yrs?|y\b|months?|mos?|m\b|weeks?|wks?|w\b|days?|d\b)`)
	parenRe    = regexp.MustCompile(`\([^)]*\)`)
	lifetimeRe = regexp.MustCompile(`\blife\s*-?\s*time\b|\blifelong\b`)

	wordNumbers = map[string]float64{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	}
)

// IsLifetimeDuration сообщает, описывает ли текст пожизненную гарантию.
func IsLifetimeDuration(s string) bool {
	return lifetimeRe.MatchString(strings.ToLower(s))
}

// ParseDurationToMonths переводит текстовую длительность ("24 months", "2 years",
// "1 year and 6 months", "90 days") в число месяцев.
//
// ok = false, если текст не распознан или описывает пожизненную гарантию;
// в этом случае вызывающий сам решает, что делать дальше.
// Годы умножаются на 12, недели и дни переводятся из расчета 30 дней в месяце
// с округлением, но не меньше одного месяца.
func ParseDurationToMonths(s string) (int, bool) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" || IsLifetimeDuration(text) {
		return 0, false
	}

	// "2 years (24 months)": пояснение в скобках не суммируется с основным сроком
	matches := durationRe.FindAllStringSubmatch(parenRe.ReplaceAllString(text, " "), -1)
	if len(matches) == 0 {
		matches = durationRe.FindAllStringSubmatch(text, -1)
	}
	if len(matches) == 0 {
		return 0, false
	}

	var months float64
	var hasShortUnits bool
	for _, m := range matches {
		value, ok := parseNumber(m[1])
		if !ok {
			return 0, false
		}
		switch unit := m[2]; {
		case strings.HasPrefix(unit, "y"):
			months += value * 12
		case strings.HasPrefix(unit, "m"):
			months += value
		case strings.HasPrefix(unit, "w"):
			months += value * 7 / 30
			hasShortUnits = hasShortUnits || value > 0
		case strings.HasPrefix(unit, "d"):
			months += value / 30
			hasShortUnits = hasShortUnits || value > 0
		}
	}

	result := int(math.Round(months))
	if result == 0 && hasShortUnits {
		result = 1
	}
	return result, true
}

func parseNumber(s string) (float64, bool) {
	if v, ok := wordNumbers[s]; ok {
		return v, true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
