package bot

import (
	"strings"
	"time"
)

var dateLayouts = []string{"02.01.2006", "2.1.2006", "02.01.06", "02.01", "2.1"}

// parseOrderDate дата визита: "сегодня", "завтра", ДД.ММ или ДД.ММ.ГГГГ.
// Дата без года, которая в этом году уже прошла, переносится на следующий год.
func parseOrderDate(text string, now time.Time) (time.Time, bool) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "сегодня":
		return today, true
	case "завтра":
		return today.AddDate(0, 0, 1), true
	case "послезавтра":
		return today.AddDate(0, 0, 2), true
	}

	text = strings.NewReplacer("/", ".", "-", ".").Replace(text)
	for _, layout := range dateLayouts {
		date, err := time.ParseInLocation(layout, text, loc)
		if err != nil {
			continue
		}
		withYear := strings.Count(layout, ".") == 2
		if !withYear {
			month, dayOfMonth := date.Month(), date.Day()
			date = time.Date(today.Year(), month, dayOfMonth, 0, 0, 0, 0, loc)
			if date.Before(today) {
				date = time.Date(today.Year()+1, month, dayOfMonth, 0, 0, 0, 0, loc)
			}
			// 29.02 в невисокосном году превратился бы в 1 марта
			if date.Day() != dayOfMonth {
				return time.Time{}, false
			}
		}
		if date.Before(today) {
			return time.Time{}, false
		}
		return date, true
	}
	return time.Time{}, false
}
