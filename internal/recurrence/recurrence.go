// Package recurrence decides whether a block's anchor date repeats on
// a candidate date.  It is a pure calendar computation: no clock reads,
// no storage, so the same inputs always give the same answer and tests
// can probe arbitrary dates.
package recurrence

import (
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
)

// RecursOn reports whether a rule anchored at anchor recurs on
// candidate.  until, when non-nil, is the last date the rule is in
// force (inclusive).  Dates are compared at UTC day granularity; any
// clock component on the arguments is discarded.
//
// Rules:
//   DAILY   – every day from the anchor onwards.
//   WEEKLY  – the anchor's weekday, every week.
//   MONTHLY – the anchor's day-of-month, every month.  Months without
//             that day (day 31 in April, day 29-31 in February) simply
//             have no occurrence; the day is never clamped to month
//             end, so an anchor on the 31st stays on the 31st.
//   YEARLY  – the anchor's month and day-of-month, every year, with
//             the same no-clamping behaviour for Feb 29 anchors.
//
// RuleNone never recurs: non-recurring blocks are covered by their
// plain date range, not by this function.
func RecursOn(anchor time.Time, rule model.Rule, until *time.Time, candidate time.Time) bool {
	a := model.DateOf(anchor)
	c := model.DateOf(candidate)
	if c.Before(a) {
		return false
	}
	if until != nil && c.After(model.DateOf(*until)) {
		return false
	}
	switch rule {
	case model.RuleDaily:
		return true
	case model.RuleWeekly:
		return c.Weekday() == a.Weekday()
	case model.RuleMonthly:
		return c.Day() == a.Day()
	case model.RuleYearly:
		return c.Month() == a.Month() && c.Day() == a.Day()
	}
	return false
}
