package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
// Storing minutes keeps range comparisons (start <= t < end) free of
// string parsing and timezone concerns; the calendar date travels
// separately as a UTC time.Time.
type TimeOfDay int

// ErrBadTimeOfDay is returned by ParseTimeOfDay for input that is not
// a valid HH:MM or HH:MM:SS clock time.
var ErrBadTimeOfDay = errors.New("invalid time of day")

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (seconds are discarded,
// matching the minute granularity slots are scheduled at).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrBadTimeOfDay
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrBadTimeOfDay
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrBadTimeOfDay
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, ErrBadTimeOfDay
		}
	}
	return TimeOfDay(h*60 + m), nil
}

// String renders the time as HH:MM:SS, the format MySQL TIME columns
// accept and emit.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:00", int(t)/60, int(t)%60)
}

// Short renders the time as HH:MM for API responses.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether the value falls inside a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < 24*60 }
