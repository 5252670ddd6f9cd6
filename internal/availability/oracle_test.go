package availability

import (
	"context"
	"testing"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
)

// memBlocks is an in-memory BlockSource.  It returns every stored
// block regardless of the query, leaving all filtering to the oracle,
// which is stricter than the SQL repository needs to be and therefore
// a safe stand-in.
type memBlocks struct {
	blocks []model.Block
}

func (m *memBlocks) Candidates(_ context.Context, _ uint64, _ time.Time) ([]model.Block, error) {
	out := make([]model.Block, len(m.blocks))
	copy(out, m.blocks)
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	v, err := model.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return v
}

func TestSimpleAllDayRange(t *testing.T) {
	end := day(2024, time.June, 3)
	src := &memBlocks{blocks: []model.Block{{
		ID:         1,
		Scope:      model.OneResource(7),
		StartDate:  day(2024, time.June, 1),
		EndDate:    &end,
		AllDay:     true,
		Kind:       model.KindBlackout,
		Reason:     "closed for refit",
		Recurrence: model.RuleNone,
	}}}
	o := New(src)
	ctx := context.Background()
	ten := clock(t, "10:00")

	blocked, err := o.IsBlocked(ctx, 7, day(2024, time.June, 2), ten)
	if err != nil || !blocked {
		t.Fatalf("expected June 2 blocked, got blocked=%v err=%v", blocked, err)
	}
	blocked, err = o.IsBlocked(ctx, 7, day(2024, time.June, 4), ten)
	if err != nil || blocked {
		t.Fatalf("expected June 4 free, got blocked=%v err=%v", blocked, err)
	}
	// A different resource is untouched by a resource-specific block.
	blocked, err = o.IsBlocked(ctx, 8, day(2024, time.June, 2), ten)
	if err != nil || blocked {
		t.Fatalf("expected resource 8 free, got blocked=%v err=%v", blocked, err)
	}
}

func TestAllDayPrecedesTimeScoped(t *testing.T) {
	src := &memBlocks{blocks: []model.Block{
		{
			ID:         1,
			Scope:      model.OneResource(7),
			StartDate:  day(2024, time.June, 1),
			StartTime:  clock(t, "09:00"),
			EndTime:    clock(t, "12:00"),
			Kind:       model.KindHold,
			Recurrence: model.RuleNone,
		},
		{
			ID:         2,
			Scope:      model.OneResource(7),
			StartDate:  day(2024, time.June, 1),
			AllDay:     true,
			Kind:       model.KindMaintenance,
			Recurrence: model.RuleNone,
		},
	}}
	o := New(src)
	b, err := o.FindActiveBlock(context.Background(), 7, day(2024, time.June, 1), clock(t, "10:00"))
	if err != nil {
		t.Fatal(err)
	}
	if b == nil || b.ID != 2 {
		t.Fatalf("expected all-day block 2 to win, got %+v", b)
	}
}

func TestTimeScopedHalfOpenRange(t *testing.T) {
	src := &memBlocks{blocks: []model.Block{{
		ID:         1,
		Scope:      model.OneResource(3),
		StartDate:  day(2024, time.June, 1),
		StartTime:  clock(t, "09:00"),
		EndTime:    clock(t, "10:00"),
		Kind:       model.KindHold,
		Recurrence: model.RuleNone,
	}}}
	o := New(src)
	ctx := context.Background()
	d := day(2024, time.June, 1)

	for _, tc := range []struct {
		at   string
		want bool
	}{
		{"08:59", false},
		{"09:00", true}, // start inclusive
		{"09:59", true},
		{"10:00", false}, // end exclusive
	} {
		blocked, err := o.IsBlocked(ctx, 3, d, clock(t, tc.at))
		if err != nil {
			t.Fatal(err)
		}
		if blocked != tc.want {
			t.Fatalf("at %s: blocked=%v want %v", tc.at, blocked, tc.want)
		}
	}
}

func TestGlobalBlockRestrictsEveryResource(t *testing.T) {
	src := &memBlocks{blocks: []model.Block{{
		ID:         1,
		Scope:      model.AllResources(),
		StartDate:  day(2024, time.December, 25),
		AllDay:     true,
		Kind:       model.KindBlackout,
		Reason:     "public holiday",
		Recurrence: model.RuleNone,
	}}}
	o := New(src)
	ctx := context.Background()
	for _, res := range []uint64{1, 2, 99} {
		blocked, err := o.IsBlocked(ctx, res, day(2024, time.December, 25), clock(t, "11:00"))
		if err != nil || !blocked {
			t.Fatalf("resource %d: expected blocked, got blocked=%v err=%v", res, blocked, err)
		}
	}
}

func TestWeeklyRecurringTimeScoped(t *testing.T) {
	src := &memBlocks{blocks: []model.Block{{
		ID:         1,
		Scope:      model.OneResource(5),
		StartDate:  day(2024, time.June, 3), // a Monday
		StartTime:  clock(t, "09:00"),
		EndTime:    clock(t, "10:00"),
		Kind:       model.KindHold,
		Recurrence: model.RuleWeekly,
	}}}
	o := New(src)
	ctx := context.Background()
	half := clock(t, "09:30")

	// Every subsequent Monday at 09:30 is blocked.
	for _, d := range []time.Time{day(2024, time.June, 10), day(2024, time.June, 17), day(2025, time.March, 3)} {
		blocked, err := o.IsBlocked(ctx, 5, d, half)
		if err != nil || !blocked {
			t.Fatalf("monday %s: expected blocked, got blocked=%v err=%v", d.Format("2006-01-02"), blocked, err)
		}
	}
	// Tuesdays are not, and Mondays outside the window are not.
	if blocked, _ := o.IsBlocked(ctx, 5, day(2024, time.June, 11), half); blocked {
		t.Fatal("tuesday should not be blocked")
	}
	if blocked, _ := o.IsBlocked(ctx, 5, day(2024, time.June, 10), clock(t, "10:30")); blocked {
		t.Fatal("monday outside the time window should not be blocked")
	}
}

func TestRecurrenceEndBoundsRecurringBlock(t *testing.T) {
	until := day(2024, time.June, 17)
	src := &memBlocks{blocks: []model.Block{{
		ID:            1,
		Scope:         model.OneResource(5),
		StartDate:     day(2024, time.June, 3),
		AllDay:        true,
		Kind:          model.KindMaintenance,
		Recurrence:    model.RuleWeekly,
		RecurrenceEnd: &until,
	}}}
	o := New(src)
	ctx := context.Background()
	noon := clock(t, "12:00")

	if blocked, _ := o.IsBlocked(ctx, 5, day(2024, time.June, 17), noon); !blocked {
		t.Fatal("last occurrence should still block")
	}
	if blocked, _ := o.IsBlocked(ctx, 5, day(2024, time.June, 24), noon); blocked {
		t.Fatal("occurrences past recurrence_end should not block")
	}
}

func TestIsDateFullyBlocked(t *testing.T) {
	src := &memBlocks{blocks: []model.Block{
		{
			ID:         1,
			Scope:      model.OneResource(4),
			StartDate:  day(2024, time.June, 1),
			StartTime:  clock(t, "09:00"),
			EndTime:    clock(t, "17:00"),
			Kind:       model.KindHold,
			Recurrence: model.RuleNone,
		},
		{
			ID:         2,
			Scope:      model.OneResource(4),
			StartDate:  day(2024, time.June, 2),
			AllDay:     true,
			Kind:       model.KindBlackout,
			Recurrence: model.RuleNone,
		},
	}}
	o := New(src)
	ctx := context.Background()

	// A time-scoped block, however wide, never fully blocks a date.
	full, err := o.IsDateFullyBlocked(ctx, 4, day(2024, time.June, 1))
	if err != nil || full {
		t.Fatalf("June 1: expected not fully blocked, got full=%v err=%v", full, err)
	}
	full, err = o.IsDateFullyBlocked(ctx, 4, day(2024, time.June, 2))
	if err != nil || !full {
		t.Fatalf("June 2: expected fully blocked, got full=%v err=%v", full, err)
	}
}
