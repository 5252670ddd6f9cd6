package offer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
)

func TestSweepExpiresOverdueOffers(t *testing.T) {
	f := newFixture()
	keyA := testKey()
	keyB := testKey()
	keyB.ResourceID = 8
	a := f.store.enqueue(keyA, "a", f.clock.Now())
	b := f.store.enqueue(keyB, "b", f.clock.Now())
	ctx := context.Background()
	if err := f.coord.SlotFreed(ctx, keyA); err != nil {
		t.Fatal(err)
	}
	if err := f.coord.SlotFreed(ctx, keyB); err != nil {
		t.Fatal(err)
	}

	s := &Sweeper{Entries: f.store, Coord: f.coord, Now: f.clock.Now}

	// Nothing due yet.
	if swept, failed := s.SweepOnce(ctx); swept != 0 || failed != 0 {
		t.Fatalf("premature sweep: swept=%d failed=%d, want 0/0", swept, failed)
	}
	f.clock.Advance(16 * time.Minute)
	swept, failed := s.SweepOnce(ctx)
	if swept != 2 || failed != 0 {
		t.Fatalf("sweep: swept=%d failed=%d, want 2/0", swept, failed)
	}
	if got := f.store.status(a.ID); got != model.StatusExpired {
		t.Fatalf("entry a status = %s, want EXPIRED", got)
	}
	if got := f.store.status(b.ID); got != model.StatusExpired {
		t.Fatalf("entry b status = %s, want EXPIRED", got)
	}

	// A duplicate pass is a no-op: Expire re-checks status.
	if swept, failed := s.SweepOnce(ctx); swept != 0 || failed != 0 {
		t.Fatalf("duplicate sweep: swept=%d failed=%d, want 0/0", swept, failed)
	}
}

func TestSweepToleratesPartialFailure(t *testing.T) {
	f := newFixture()
	keyA := testKey()
	keyB := testKey()
	keyB.ResourceID = 8
	a := f.store.enqueue(keyA, "a", f.clock.Now())
	b := f.store.enqueue(keyB, "b", f.clock.Now())
	ctx := context.Background()
	if err := f.coord.SlotFreed(ctx, keyA); err != nil {
		t.Fatal(err)
	}
	if err := f.coord.SlotFreed(ctx, keyB); err != nil {
		t.Fatal(err)
	}
	f.store.failTransition = map[uint64]error{a.ID: errors.New("storage hiccup")}
	f.clock.Advance(16 * time.Minute)

	s := &Sweeper{Entries: f.store, Coord: f.coord, Now: f.clock.Now}
	swept, failed := s.SweepOnce(ctx)
	if swept != 1 || failed != 1 {
		t.Fatalf("sweep: swept=%d failed=%d, want 1/1", swept, failed)
	}
	// The failing entry did not stop the pass; the other expired.
	if got := f.store.status(b.ID); got != model.StatusExpired {
		t.Fatalf("entry b status = %s, want EXPIRED", got)
	}

	// Once the failure clears, the next pass picks the stuck entry up.
	f.store.failTransition = nil
	swept, failed = s.SweepOnce(ctx)
	if swept != 1 || failed != 0 {
		t.Fatalf("retry sweep: swept=%d failed=%d, want 1/0", swept, failed)
	}
	if got := f.store.status(a.ID); got != model.StatusExpired {
		t.Fatalf("entry a status = %s, want EXPIRED", got)
	}
}

// TestCascadeAcrossExpiryAndAccept walks the full scenario: A declines,
// B expires via a sweep, C accepts and gets a booking, leaving the
// queue empty.
func TestCascadeAcrossExpiryAndAccept(t *testing.T) {
	f := newFixture()
	key := testKey()
	ctx := context.Background()
	a := f.store.enqueue(key, "a", f.clock.Now())
	b := f.store.enqueue(key, "b", f.clock.Now().Add(time.Second))
	c := f.store.enqueue(key, "c", f.clock.Now().Add(2*time.Second))

	if err := f.coord.SlotFreed(ctx, key); err != nil {
		t.Fatal(err)
	}
	ea, _ := f.store.GetByID(ctx, a.ID)
	if err := f.coord.Decline(ctx, a.ID, *ea.OfferToken); err != nil {
		t.Fatal(err)
	}
	if got := f.store.status(b.ID); got != model.StatusOffered {
		t.Fatalf("after decline: b status = %s, want OFFERED", got)
	}

	// B leaves the offer untouched past its window.
	f.clock.Advance(16 * time.Minute)
	s := &Sweeper{Entries: f.store, Coord: f.coord, Now: f.clock.Now}
	if swept, failed := s.SweepOnce(ctx); swept != 1 || failed != 0 {
		t.Fatalf("sweep: swept=%d failed=%d, want 1/0", swept, failed)
	}
	if got := f.store.status(b.ID); got != model.StatusExpired {
		t.Fatalf("b status = %s, want EXPIRED", got)
	}
	if got := f.store.status(c.ID); got != model.StatusOffered {
		t.Fatalf("c status = %s, want OFFERED", got)
	}

	ec, _ := f.store.GetByID(ctx, c.ID)
	bookingID, err := f.coord.Accept(ctx, c.ID, *ec.OfferToken)
	if err != nil {
		t.Fatal(err)
	}
	if bookingID == 0 {
		t.Fatal("expected a booking id")
	}
	if f.bookings.count() != 1 {
		t.Fatalf("bookings = %d, want 1", f.bookings.count())
	}
	if head, _ := f.store.Head(ctx, key); head != nil {
		t.Fatalf("queue should be empty, head = %+v", head)
	}
	if n := f.store.offeredCount(key); n != 0 {
		t.Fatalf("offers outstanding = %d, want 0", n)
	}
}
