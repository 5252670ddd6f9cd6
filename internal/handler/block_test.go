package handler

import (
	"testing"

	"github.com/dunskii/booking-waitlist/internal/model"
)

func strp(s string) *string { return &s }

func TestBlockFromReqValid(t *testing.T) {
	rid := uint64(7)
	b, msg := blockFromReq(blockReq{
		ResourceID: &rid,
		StartDate:  "2026-09-01",
		EndDate:    strp("2026-09-03"),
		StartTime:  "09:00",
		EndTime:    "12:00",
		Kind:       "MAINTENANCE",
		Reason:     "deep clean",
		Recurrence: "WEEKLY",
	})
	if msg != "" {
		t.Fatalf("unexpected validation error: %s", msg)
	}
	if id, ok := b.Scope.ResourceID(); !ok || id != 7 {
		t.Errorf("scope = %v, want resource 7", b.Scope)
	}
	if b.StartTime.Short() != "09:00" || b.EndTime.Short() != "12:00" {
		t.Errorf("time range = %s-%s", b.StartTime.Short(), b.EndTime.Short())
	}
	if b.Recurrence != model.RuleWeekly {
		t.Errorf("recurrence = %s, want WEEKLY", b.Recurrence)
	}
}

func TestBlockFromReqDefaults(t *testing.T) {
	b, msg := blockFromReq(blockReq{
		StartDate: "2026-09-01",
		AllDay:    true,
		Kind:      "BLACKOUT",
	})
	if msg != "" {
		t.Fatalf("unexpected validation error: %s", msg)
	}
	if !b.Scope.IsAll() {
		t.Errorf("missing resource_id should mean every resource")
	}
	if b.Recurrence != model.RuleNone {
		t.Errorf("recurrence defaulted to %s, want NONE", b.Recurrence)
	}
}

func TestBlockFromReqRejections(t *testing.T) {
	cases := []struct {
		name string
		req  blockReq
	}{
		{"bad start date", blockReq{StartDate: "2026-13-01", AllDay: true, Kind: "HOLD"}},
		{"end before start", blockReq{StartDate: "2026-09-03", EndDate: strp("2026-09-01"), AllDay: true, Kind: "HOLD"}},
		{"missing times", blockReq{StartDate: "2026-09-01", Kind: "HOLD"}},
		{"inverted times", blockReq{StartDate: "2026-09-01", StartTime: "12:00", EndTime: "09:00", Kind: "HOLD"}},
		{"unknown kind", blockReq{StartDate: "2026-09-01", AllDay: true, Kind: "CLOSED"}},
		{"unknown recurrence", blockReq{StartDate: "2026-09-01", AllDay: true, Kind: "HOLD", Recurrence: "FORTNIGHTLY"}},
		{"recurrence_end without rule", blockReq{StartDate: "2026-09-01", AllDay: true, Kind: "HOLD", RecurrenceEnd: strp("2026-12-01")}},
		{"zero resource id", blockReq{ResourceID: new(uint64), StartDate: "2026-09-01", AllDay: true, Kind: "HOLD"}},
	}
	for _, c := range cases {
		if _, msg := blockFromReq(c.req); msg == "" {
			t.Errorf("%s: expected a validation error", c.name)
		}
	}
}
