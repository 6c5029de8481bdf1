package limits

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses "H:MM" or "HH:MM" into minutes since midnight. Both
// components must be 1-2 digits. Out-of-range values such as "25:00" parse
// but never match a real time of day.
func ParseClock(s string) (minute int, ok bool) {
	hh, mm, found := strings.Cut(s, ":")
	if !found {
		return 0, false
	}
	h, ok := parseClockPart(hh)
	if !ok {
		return 0, false
	}
	m, ok := parseClockPart(mm)
	if !ok {
		return 0, false
	}
	return h*60 + m, true
}

func parseClockPart(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Weekday returns the three-letter day name of t, e.g. "Mon".
func Weekday(t time.Time) string {
	return weekdayNames[t.Weekday()]
}

// MinuteOfDay returns hours*60+minutes of t in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// InWindow reports whether minute falls within from..to, inclusive at both
// ends. When from > to the window crosses midnight.
func InWindow(minute, from, to int) bool {
	if from <= to {
		return minute >= from && minute <= to
	}
	return minute >= from || minute <= to
}

// IsActive reports whether the limit's day and time window cover now.
// Limits with malformed times are never active.
func IsActive(l *Limit, now time.Time) bool {
	if !slices.Contains(l.Weekdays, Weekday(now)) {
		return false
	}
	from, ok := ParseClock(l.TimeframeFrom)
	if !ok {
		return false
	}
	to, ok := ParseClock(l.TimeframeTo)
	if !ok {
		return false
	}
	return InWindow(MinuteOfDay(now), from, to)
}
