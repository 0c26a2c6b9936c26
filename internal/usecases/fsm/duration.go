package fsm

import (
	"math"
	"regexp"
	"strconv"
)

// DefaultDurationHours длительность визита, если интервал не распознан
const DefaultDurationHours = 3

var timeRangeRe = regexp.MustCompile(`(\d{1,2})[:.](\d{2})\s*[-–—]\s*(\d{1,2})[:.](\d{2})`)

// ParseDurationHours длительность по интервалу "14:00 - 18:00".
// Переход через полночь допускается, результат округляется до часа, минимум 1.
func ParseDurationHours(timeRange string) int {
	m := timeRangeRe.FindStringSubmatch(timeRange)
	if m == nil {
		return DefaultDurationHours
	}

	start, ok := minutesOfDay(m[1], m[2])
	if !ok {
		return DefaultDurationHours
	}
	end, ok := minutesOfDay(m[3], m[4])
	if !ok {
		return DefaultDurationHours
	}

	diff := end - start
	if diff < 0 {
		diff += 24 * 60
	}

	hours := int(math.Round(float64(diff) / 60))
	if hours < 1 {
		hours = 1
	}
	return hours
}

func minutesOfDay(h, m string) (int, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
