// Package availability answers point-in-time blocking queries: is this
// resource free at a given date and time, and which block, if any, is
// responsible.  It composes stored blocks with the recurrence matcher
// and performs no writes of its own.
package availability

import (
	"context"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
	"github.com/dunskii/booking-waitlist/internal/recurrence"
)

// BlockSource yields the blocks that could possibly apply to a
// resource on a date: global and resource-specific blocks whose range
// or recurrence could reach the date.  The SQL repository satisfies
// this; tests use an in-memory slice.
type BlockSource interface {
	Candidates(ctx context.Context, resourceID uint64, date time.Time) ([]model.Block, error)
}

// Oracle resolves active blocks.  It holds no state beyond its source
// and is safe for concurrent use.
type Oracle struct {
	blocks BlockSource
}

// New constructs an Oracle over the given block source.
func New(blocks BlockSource) *Oracle {
	if blocks == nil {
		panic("nil block source passed to availability.New")
	}
	return &Oracle{blocks: blocks}
}

// FindActiveBlock returns the block making (resource, date, t)
// unavailable, or nil when the slot is free.  The evaluation order is
// a deliberate tie-break policy, not an optimisation: (1) non-recurring
// all-day blocks, (2) non-recurring time-scoped blocks, (3) recurring
// blocks, all-day before time-scoped.  Global blocks compete in every
// pass alongside resource-specific ones.
func (o *Oracle) FindActiveBlock(ctx context.Context, resourceID uint64, date time.Time, t model.TimeOfDay) (*model.Block, error) {
	cands, err := o.blocks.Candidates(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}
	// Pass 1: one-off all-day blocks covering the date.
	for i := range cands {
		b := &cands[i]
		if b.Recurrence == model.RuleNone && b.AllDay && b.Scope.Covers(resourceID) && b.CoversDate(date) {
			return b, nil
		}
	}
	// Pass 2: one-off time-scoped blocks covering date and time.
	for i := range cands {
		b := &cands[i]
		if b.Recurrence == model.RuleNone && !b.AllDay && b.Scope.Covers(resourceID) && b.CoversDate(date) && b.CoversTime(t) {
			return b, nil
		}
	}
	// Pass 3: recurring blocks, honouring all-day vs. time-scoped
	// semantics identically to passes 1 and 2.
	for i := range cands {
		b := &cands[i]
		if b.Recurrence == model.RuleNone || !b.AllDay || !b.Scope.Covers(resourceID) {
			continue
		}
		if recurrence.RecursOn(b.StartDate, b.Recurrence, b.RecurrenceEnd, date) {
			return b, nil
		}
	}
	for i := range cands {
		b := &cands[i]
		if b.Recurrence == model.RuleNone || b.AllDay || !b.Scope.Covers(resourceID) {
			continue
		}
		if recurrence.RecursOn(b.StartDate, b.Recurrence, b.RecurrenceEnd, date) && b.CoversTime(t) {
			return b, nil
		}
	}
	return nil, nil
}

// IsBlocked reports whether any block is active for the slot.
func (o *Oracle) IsBlocked(ctx context.Context, resourceID uint64, date time.Time, t model.TimeOfDay) (bool, error) {
	b, err := o.FindActiveBlock(ctx, resourceID, date, t)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

// IsDateFullyBlocked reports whether an all-day block (one-off or
// recurring) removes the entire date for the resource.  Time-scoped
// blocks are ignored here.
func (o *Oracle) IsDateFullyBlocked(ctx context.Context, resourceID uint64, date time.Time) (bool, error) {
	cands, err := o.blocks.Candidates(ctx, resourceID, date)
	if err != nil {
		return false, err
	}
	for i := range cands {
		b := &cands[i]
		if !b.AllDay || !b.Scope.Covers(resourceID) {
			continue
		}
		if b.Recurrence == model.RuleNone {
			if b.CoversDate(date) {
				return true, nil
			}
			continue
		}
		if recurrence.RecursOn(b.StartDate, b.Recurrence, b.RecurrenceEnd, date) {
			return true, nil
		}
	}
	return false, nil
}
