package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reClock = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// parseClock converts a clock string like "2pm", "10:30 am" or "14:00" into
// minutes since midnight.
func parseClock(s string) (int, error) {
	m := reClock.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("unrecognized time %q", s)
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("unrecognized time %q", s)
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return 0, fmt.Errorf("unrecognized time %q", s)
		}
	}
	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("unrecognized time %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("unrecognized time %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, fmt.Errorf("unrecognized time %q", s)
		}
	}
	return hour*60 + minute, nil
}

// durationHours computes the booking duration from start and end clock
// strings. A non-positive duration is an error, never clamped.
func durationHours(start, end string) (float64, error) {
	s, err := parseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := parseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("end time %s is not after start time %s", end, start)
	}
	return float64(e-s) / 60, nil
}

// resolveDate turns the relative date words into concrete dates; anything
// else passes through unchanged.
func resolveDate(word string, now time.Time) string {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "today":
		return now.Format("2006-01-02")
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	default:
		return word
	}
}
