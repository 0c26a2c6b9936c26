package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderDate(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"сегодня", day(2026, 10, 17), true},
		{"Завтра", day(2026, 10, 18), true},
		{"25.12", day(2026, 12, 25), true},
		{"5.1", day(2027, 1, 5), true},
		{"01.02.2027", day(2027, 2, 1), true},
		{"20/10/2026", day(2026, 10, 20), true},
		{"16.10.2026", time.Time{}, false},
		{"31.02", time.Time{}, false},
		{"29.02", time.Time{}, false},
		{"на днях", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseOrderDate(tt.in, now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestParseOrderDate_LeapDayWithoutYear(t *testing.T) {
	// следующий февраль високосный
	now := time.Date(2027, 10, 17, 9, 0, 0, 0, time.UTC)
	got, ok := parseOrderDate("29.02", now)
	assert.True(t, ok)
	assert.True(t, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC).Equal(got), "got %s", got)
}
