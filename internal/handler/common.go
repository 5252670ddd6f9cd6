package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dunskii/booking-waitlist/internal/model"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// paramUint parses a numeric path parameter.
func paramUint(c echo.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// queryUint parses a numeric query parameter.
func queryUint(c echo.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// parseDate parses a YYYY-MM-DD string into a UTC midnight time.
func parseDate(s string) (time.Time, bool) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// parseClock parses an HH:MM or HH:MM:SS string into a TimeOfDay.
func parseClock(s string) (model.TimeOfDay, bool) {
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return 0, false
	}
	return t, true
}
