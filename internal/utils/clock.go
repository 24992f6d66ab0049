package utils

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidClock = errors.New("invalid time of day, expected HH:mm")

const minutesPerDay = 24 * 60

// ParseClock converts "HH:mm" into minutes after midnight.
func ParseClock(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	return parsed.Hour()*60 + parsed.Minute(), nil
}

func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClockRange parses a start/end pair and returns both in minutes.
func ClockRange(start, end string) (int, int, error) {
	startMinutes, err := ParseClock(start)
	if err != nil {
		return 0, 0, err
	}

	endMinutes, err := ParseClock(end)
	if err != nil {
		return 0, 0, err
	}

	return startMinutes, endMinutes, nil
}
