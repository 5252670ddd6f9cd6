// Package offer implements the time-boxed offer lifecycle for freed
// slots: claiming the head of the matching waitlist queue, issuing a
// token-authenticated offer with a deadline, and cascading to the next
// entry when an offer is declined, expires or is cancelled.
package offer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
	"github.com/dunskii/booking-waitlist/internal/repository"
)

// ErrNoLongerAvailable is returned when a transition lost its race:
// the offer was already consumed, expired or withdrawn.  Callers must
// not retry; they should re-read entry state instead.
var ErrNoLongerAvailable = errors.New("offer no longer available")

// ErrBookingFailed is returned when the accept transition succeeded
// but the booking store refused the booking.  The entry stays
// ACCEPTED; reverting and re-cascading could double-book against a
// slow-but-successful insert, so the inconsistency is surfaced for
// reconciliation instead of hidden behind a retry.
var ErrBookingFailed = errors.New("accepted but not booked")

// EntryStore is the slice of waitlist persistence the coordinator
// drives.  Every status-changing method is a compare-and-set: it
// reports via its bool return whether this caller won the transition.
// repository.WaitlistRepo satisfies this; tests use an in-memory
// implementation with the same race semantics.
type EntryStore interface {
	GetByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error)
	Head(ctx context.Context, key model.QueueKey) (*model.WaitlistEntry, error)
	MarkOffered(ctx context.Context, e *model.WaitlistEntry, token string, expiresAt time.Time) (bool, error)
	Transition(ctx context.Context, id uint64, from, to model.EntryStatus) (bool, error)
	ListExpiredOffers(ctx context.Context, now time.Time) ([]model.WaitlistEntry, error)
}

// Availability answers whether the freed slot is itself blocked before
// an offer goes out.
type Availability interface {
	FindActiveBlock(ctx context.Context, resourceID uint64, date time.Time, t model.TimeOfDay) (*model.Block, error)
}

// BookingStore commits an accepted offer into a booking and returns
// the booking id.
type BookingStore interface {
	Create(ctx context.Context, e *model.WaitlistEntry) (uint64, error)
}

// Notifier delivers offer notifications to claimants.  Delivery is
// best-effort: implementations must return quickly (dispatching in the
// background) and must never make the coordinator's state transitions
// wait on, or roll back for, delivery problems.
type Notifier interface {
	OfferIssued(e model.WaitlistEntry)
	OfferClosed(e model.WaitlistEntry, outcome model.EntryStatus)
}

// Coordinator is the state machine around freed slots.  All methods
// are safe for concurrent use; mutual exclusion between competing
// transitions on one entry comes from the store's compare-and-set
// discipline, not from locking in this package.
type Coordinator struct {
	entries  EntryStore
	oracle   Availability
	bookings BookingStore
	notifier Notifier
	window   time.Duration
	now      func() time.Time
}

// NewCoordinator constructs a Coordinator.  window is the offer
// lifetime.  now is the injected clock; pass nil for wall-clock UTC.
func NewCoordinator(entries EntryStore, oracle Availability, bookings BookingStore, notifier Notifier, window time.Duration, now func() time.Time) *Coordinator {
	if entries == nil || oracle == nil || bookings == nil || notifier == nil {
		panic("nil dependency passed to offer.NewCoordinator")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Coordinator{
		entries:  entries,
		oracle:   oracle,
		bookings: bookings,
		notifier: notifier,
		window:   window,
		now:      now,
	}
}

// SlotFreed reacts to a slot becoming free (booking cancelled or
// rescheduled away).  If the slot is now blocked the event is a no-op
// and the queue is left untouched for a later free event.  Otherwise
// it claims the current head of the queue and issues an offer.
//
// The claim loop is what makes duplicate slot-freed events and
// concurrent cancellations safe: each iteration re-reads the head and
// attempts the WAITING -> OFFERED compare-and-set, which also refuses
// to fire while any other entry for the key holds an offer.  A loser
// either finds a new head to try or runs out of eligible entries and
// stops.  The loop is bounded by the queue length.
func (c *Coordinator) SlotFreed(ctx context.Context, key model.QueueKey) error {
	blk, err := c.oracle.FindActiveBlock(ctx, key.ResourceID, key.Date, key.Time)
	if err != nil {
		return err
	}
	if blk != nil {
		return nil
	}
	for {
		head, err := c.entries.Head(ctx, key)
		if err != nil {
			return err
		}
		if head == nil {
			return nil
		}
		token, err := newOfferToken()
		if err != nil {
			return err
		}
		expiresAt := c.now().Add(c.window)
		won, err := c.entries.MarkOffered(ctx, head, token, expiresAt)
		if err != nil {
			return err
		}
		if !won {
			// Either another slot-freed event claimed this head, an
			// offer is already outstanding on a different entry for
			// the key, or the head was cancelled underneath us.
			fresh, err := c.entries.GetByID(ctx, head.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if fresh != nil && fresh.Status == model.StatusOffered {
				// A racing event won this head; the offer is out.
				return nil
			}
			if fresh != nil && fresh.Status == model.StatusWaiting {
				// The head is untouched, so the compare-and-set was
				// refused by the at-most-one-offer guard: some other
				// entry for this key already holds the offer.
				return nil
			}
			// The head left the queue (cancelled/purged); try the next.
			continue
		}
		head.Status = model.StatusOffered
		head.OfferToken = &token
		head.OfferExpiresAt = &expiresAt
		c.notifier.OfferIssued(*head)
		return nil
	}
}

// Accept lets the claimant take the offered slot.  It succeeds only
// while the entry is OFFERED, the token matches and the deadline has
// not passed; exactly one of any set of racing accepts wins the
// OFFERED -> ACCEPTED compare-and-set and creates the booking.  Losers
// get ErrNoLongerAvailable and never create a duplicate booking.
func (c *Coordinator) Accept(ctx context.Context, entryID uint64, token string) (uint64, error) {
	e, err := c.entries.GetByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if e.Status != model.StatusOffered {
		return 0, ErrNoLongerAvailable
	}
	if e.OfferToken == nil || *e.OfferToken != token {
		return 0, repository.ErrForbidden
	}
	if e.OfferExpiresAt != nil && c.now().After(*e.OfferExpiresAt) {
		// Past the deadline; leave the entry for the sweeper to expire
		// and cascade.
		return 0, ErrNoLongerAvailable
	}
	won, err := c.entries.Transition(ctx, entryID, model.StatusOffered, model.StatusAccepted)
	if err != nil {
		return 0, err
	}
	if !won {
		return 0, ErrNoLongerAvailable
	}
	e.Status = model.StatusAccepted
	bookingID, err := c.bookings.Create(ctx, e)
	if err != nil {
		// The entry is ACCEPTED but no booking exists.  This needs
		// manual reconciliation; see ErrBookingFailed.
		log.Printf("offer: RECONCILE entry=%d accepted but booking creation failed: %v", entryID, err)
		return 0, fmt.Errorf("%w: %v", ErrBookingFailed, err)
	}
	c.notifier.OfferClosed(*e, model.StatusAccepted)
	return bookingID, nil
}

// Decline lets the claimant pass on the offered slot, then cascades
// the offer to the new head of the queue.
func (c *Coordinator) Decline(ctx context.Context, entryID uint64, token string) error {
	e, err := c.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if e.Status != model.StatusOffered {
		return ErrNoLongerAvailable
	}
	if e.OfferToken == nil || *e.OfferToken != token {
		return repository.ErrForbidden
	}
	won, err := c.entries.Transition(ctx, entryID, model.StatusOffered, model.StatusDeclined)
	if err != nil {
		return err
	}
	if !won {
		return ErrNoLongerAvailable
	}
	c.notifier.OfferClosed(*e, model.StatusDeclined)
	return c.SlotFreed(ctx, e.Key())
}

// Expire times out an overdue offer and cascades.  It is invoked by
// the sweeper and is idempotent: an entry that is no longer OFFERED,
// or whose deadline has not actually passed, is left alone.
func (c *Coordinator) Expire(ctx context.Context, entryID uint64) error {
	e, err := c.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if e.Status != model.StatusOffered {
		return nil
	}
	if e.OfferExpiresAt == nil || !c.now().After(*e.OfferExpiresAt) {
		return nil
	}
	won, err := c.entries.Transition(ctx, entryID, model.StatusOffered, model.StatusExpired)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}
	c.notifier.OfferClosed(*e, model.StatusExpired)
	return c.SlotFreed(ctx, e.Key())
}

// Cancel withdraws an entry voluntarily.  A WAITING entry just leaves
// the queue; an OFFERED entry additionally cascades, because the slot
// it was holding must be offered onward.  The manage token issued at
// enqueue authorises the call.  The small retry loop covers the window
// where a slot-freed event promotes the entry between our read and our
// compare-and-set.
func (c *Coordinator) Cancel(ctx context.Context, entryID uint64, manageToken string) error {
	for attempt := 0; attempt < 3; attempt++ {
		e, err := c.entries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if e.ManageToken != manageToken {
			return repository.ErrForbidden
		}
		switch e.Status {
		case model.StatusWaiting:
			won, err := c.entries.Transition(ctx, entryID, model.StatusWaiting, model.StatusCancelled)
			if err != nil {
				return err
			}
			if won {
				return nil
			}
		case model.StatusOffered:
			won, err := c.entries.Transition(ctx, entryID, model.StatusOffered, model.StatusCancelled)
			if err != nil {
				return err
			}
			if won {
				c.notifier.OfferClosed(*e, model.StatusCancelled)
				return c.SlotFreed(ctx, e.Key())
			}
		default:
			return ErrNoLongerAvailable
		}
	}
	return ErrNoLongerAvailable
}

// newOfferToken generates an unguessable hex token for an offer.
func newOfferToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
