package recurrence

import (
	"testing"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecursOn(t *testing.T) {
	until := date(2024, time.June, 30)
	cases := []struct {
		name      string
		anchor    time.Time
		rule      model.Rule
		until     *time.Time
		candidate time.Time
		want      bool
	}{
		{"none never recurs", date(2024, time.January, 1), model.RuleNone, nil, date(2024, time.January, 1), false},
		{"daily before anchor", date(2024, time.March, 10), model.RuleDaily, nil, date(2024, time.March, 9), false},
		{"daily on anchor", date(2024, time.March, 10), model.RuleDaily, nil, date(2024, time.March, 10), true},
		{"daily far future without end", date(2024, time.March, 10), model.RuleDaily, nil, date(2031, time.August, 2), true},
		{"daily past end date", date(2024, time.March, 10), model.RuleDaily, &until, date(2024, time.July, 1), false},
		{"daily on end date", date(2024, time.March, 10), model.RuleDaily, &until, date(2024, time.June, 30), true},
		{"weekly same weekday", date(2024, time.June, 3), model.RuleWeekly, nil, date(2024, time.June, 10), true}, // both Mondays
		{"weekly different weekday", date(2024, time.June, 3), model.RuleWeekly, nil, date(2024, time.June, 11), false},
		{"weekly months later", date(2024, time.June, 3), model.RuleWeekly, nil, date(2024, time.December, 23), true},
		{"monthly same day", date(2024, time.January, 15), model.RuleMonthly, nil, date(2024, time.April, 15), true},
		{"monthly different day", date(2024, time.January, 15), model.RuleMonthly, nil, date(2024, time.April, 14), false},
		{"monthly day 31 skips short month", date(2024, time.January, 31), model.RuleMonthly, nil, date(2024, time.April, 30), false},
		{"monthly day 31 hits long month", date(2024, time.January, 31), model.RuleMonthly, nil, date(2024, time.May, 31), true},
		{"monthly day 29 skips non-leap february", date(2024, time.January, 29), model.RuleMonthly, nil, date(2025, time.February, 28), false},
		{"monthly day 29 hits leap february", date(2023, time.December, 29), model.RuleMonthly, nil, date(2024, time.February, 29), true},
		{"yearly same month and day", date(2022, time.July, 4), model.RuleYearly, nil, date(2025, time.July, 4), true},
		{"yearly same day other month", date(2022, time.July, 4), model.RuleYearly, nil, date(2025, time.August, 4), false},
		{"yearly feb 29 skips non-leap year", date(2024, time.February, 29), model.RuleYearly, nil, date(2025, time.February, 28), false},
		{"yearly feb 29 hits leap year", date(2024, time.February, 29), model.RuleYearly, nil, date(2028, time.February, 29), true},
		{"clock components ignored", date(2024, time.June, 3), model.RuleWeekly, nil, time.Date(2024, time.June, 10, 23, 59, 59, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecursOn(tc.anchor, tc.rule, tc.until, tc.candidate)
			if got != tc.want {
				t.Fatalf("RecursOn(%s, %s, %v, %s) = %v, want %v",
					tc.anchor.Format("2006-01-02"), tc.rule, tc.until, tc.candidate.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

// TestDailyFullYear walks a full year of candidates against a daily
// rule and checks every single day matches once the anchor has passed.
func TestDailyFullYear(t *testing.T) {
	anchor := date(2024, time.January, 1)
	for d := anchor; d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		if !RecursOn(anchor, model.RuleDaily, nil, d) {
			t.Fatalf("daily rule missed %s", d.Format("2006-01-02"))
		}
	}
}

// TestWeeklyFullYear verifies a weekly rule matches exactly the 52-53
// same-weekday dates in a year and nothing else.
func TestWeeklyFullYear(t *testing.T) {
	anchor := date(2024, time.January, 1) // a Monday
	matches := 0
	for d := anchor; d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		if RecursOn(anchor, model.RuleWeekly, nil, d) {
			if d.Weekday() != time.Monday {
				t.Fatalf("weekly rule matched non-Monday %s", d.Format("2006-01-02"))
			}
			matches++
		}
	}
	if matches != 53 {
		t.Fatalf("expected 53 Mondays in 2024 from Jan 1, got %d", matches)
	}
}
