package model

import "time"

// Rule enumerates how a block's anchor date repeats.  The zero value
// RuleNone marks a non-recurring block whose date range alone decides
// coverage.
type Rule string

const (
	RuleNone    Rule = "NONE"
	RuleDaily   Rule = "DAILY"
	RuleWeekly  Rule = "WEEKLY"
	RuleMonthly Rule = "MONTHLY"
	RuleYearly  Rule = "YEARLY"
)

// ValidRule reports whether s is one of the recognised recurrence rules.
func ValidRule(s Rule) bool {
	switch s {
	case RuleNone, RuleDaily, RuleWeekly, RuleMonthly, RuleYearly:
		return true
	}
	return false
}

// BlockKind classifies why a resource is unavailable.
type BlockKind string

const (
	KindHold        BlockKind = "HOLD"
	KindBlackout    BlockKind = "BLACKOUT"
	KindMaintenance BlockKind = "MAINTENANCE"
)

// ValidBlockKind reports whether k is a recognised block kind.
func ValidBlockKind(k BlockKind) bool {
	switch k {
	case KindHold, KindBlackout, KindMaintenance:
		return true
	}
	return false
}

// Block is an administratively configured restriction that makes a
// resource (or every resource, when Scope covers all) unavailable for
// a date/time range, optionally repeating per its recurrence rule.
//
// Invariants:
//   - when AllDay is true the time range is ignored entirely;
//   - when Recurrence is not RuleNone, StartDate is the anchor the rule
//     is evaluated against and RecurrenceEnd (when present) bounds it;
//   - EndDate, when present, is >= StartDate; an absent EndDate means a
//     single-day block.
type Block struct {
	ID            uint64        // blocks.id
	Scope         ResourceScope // blocks.resource_id (NULL means all resources)
	StartDate     time.Time     // blocks.start_date, UTC midnight
	EndDate       *time.Time    // blocks.end_date (nullable)
	AllDay        bool          // blocks.all_day
	StartTime     TimeOfDay     // blocks.start_time (ignored when AllDay)
	EndTime       TimeOfDay     // blocks.end_time (ignored when AllDay)
	Kind          BlockKind     // blocks.kind
	Reason        string        // blocks.reason, free text shown to callers
	Recurrence    Rule          // blocks.recurrence
	RecurrenceEnd *time.Time    // blocks.recurrence_end (nullable)
	CreatedAt     time.Time     // blocks.created_at
	UpdatedAt     time.Time     // blocks.updated_at
}

// CoversDate reports whether the block's plain date range includes d.
// For non-recurring blocks this is the whole coverage test; recurring
// blocks use the recurrence matcher instead.  An absent EndDate makes
// the block single-day.
func (b *Block) CoversDate(d time.Time) bool {
	day := DateOf(d)
	if day.Before(DateOf(b.StartDate)) {
		return false
	}
	end := b.StartDate
	if b.EndDate != nil {
		end = *b.EndDate
	}
	return !day.After(DateOf(end))
}

// CoversTime reports whether t falls inside the block's half-open time
// range [StartTime, EndTime).  All-day blocks cover every time.
func (b *Block) CoversTime(t TimeOfDay) bool {
	if b.AllDay {
		return true
	}
	return b.StartTime <= t && t < b.EndTime
}

// DateOf truncates t to a UTC calendar date (midnight).
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
