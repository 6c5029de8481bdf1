package limits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"00:00", 0, true},
		{"08:00", 480, true},
		{"9:05", 545, true},
		{"23:59", 1439, true},
		{"22:00", 1320, true},
		{"25:00", 1500, true},
		{"", 0, false},
		{"0800", 0, false},
		{"ab:cd", 0, false},
		{"08:", 0, false},
		{":30", 0, false},
		{"08:00:00", 0, false},
		{"-1:30", 0, false},
		{"123:00", 0, false},
		{" 8:00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseClock(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		name             string
		minute, from, to int
		want             bool
	}{
		{"inside same-day", 600, 480, 1020, true},
		{"start is inclusive", 480, 480, 1020, true},
		{"end is inclusive", 1020, 480, 1020, true},
		{"before same-day", 479, 480, 1020, false},
		{"after same-day", 1021, 480, 1020, false},
		{"single minute", 720, 720, 720, true},
		{"overnight late", 1380, 1320, 360, true},
		{"overnight early", 120, 1320, 360, true},
		{"overnight edge start", 1320, 1320, 360, true},
		{"overnight edge end", 360, 1320, 360, true},
		{"overnight gap", 720, 1320, 360, false},
		{"23:00-02:00 at start", 1380, 1380, 120, true},
		{"23:00-02:00 at midnight", 0, 1380, 120, true},
		{"23:00-02:00 at end", 120, 1380, 120, true},
		{"23:00-02:00 one after end", 121, 1380, 120, false},
		{"23:00-02:00 one before start", 1379, 1380, 120, false},
		{"09:00-17:00 at start", 540, 540, 1020, true},
		{"09:00-17:00 at end", 1020, 540, 1020, true},
		{"09:00-17:00 one before start", 539, 540, 1020, false},
		{"09:00-17:00 one after end", 1021, 540, 1020, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.minute, tt.from, tt.to))
		})
	}
}

func TestWeekday(t *testing.T) {
	// 2 March 2025 is a Sunday.
	sunday := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	want := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for i, name := range want {
		assert.Equal(t, name, Weekday(sunday.AddDate(0, 0, i)))
	}
}

func TestIsActive(t *testing.T) {
	// 3 March 2025 is a Monday.
	monday := func(h, m int) time.Time { return time.Date(2025, 3, 3, h, m, 0, 0, time.Local) }

	weekdays := Limit{TimeframeFrom: "08:00", TimeframeTo: "17:00", Weekdays: []string{"Mon", "Tue"}}
	overnight := Limit{TimeframeFrom: "22:00", TimeframeTo: "06:00", Weekdays: []string{"Mon"}}
	malformed := Limit{TimeframeFrom: "eight", TimeframeTo: "17:00", Weekdays: []string{"Mon"}}
	weekend := Limit{TimeframeFrom: "00:00", TimeframeTo: "23:59", Weekdays: []string{"Sat", "Sun"}}

	assert.True(t, IsActive(&weekdays, monday(12, 0)))
	assert.False(t, IsActive(&weekdays, monday(17, 1)))
	assert.True(t, IsActive(&overnight, monday(23, 0)))
	assert.True(t, IsActive(&overnight, monday(5, 59)))
	assert.False(t, IsActive(&overnight, monday(12, 0)))
	assert.False(t, IsActive(&malformed, monday(12, 0)))
	assert.False(t, IsActive(&weekend, monday(12, 0)))

	lateNight := Limit{TimeframeFrom: "23:00", TimeframeTo: "02:00", Weekdays: []string{"Mon"}}
	assert.True(t, IsActive(&lateNight, monday(2, 0)))
	assert.False(t, IsActive(&lateNight, monday(2, 1)))
	assert.False(t, IsActive(&lateNight, monday(22, 59)))
}
