package model

import "time"

// EntryStatus is the lifecycle state of a waitlist entry.  Transitions
// follow a one-way graph: WAITING -> OFFERED -> {ACCEPTED, DECLINED,
// EXPIRED, CANCELLED}, plus WAITING -> CANCELLED.  Every state other
// than WAITING and OFFERED is terminal.
type EntryStatus string

const (
	StatusWaiting   EntryStatus = "WAITING"
	StatusOffered   EntryStatus = "OFFERED"
	StatusAccepted  EntryStatus = "ACCEPTED"
	StatusDeclined  EntryStatus = "DECLINED"
	StatusExpired   EntryStatus = "EXPIRED"
	StatusCancelled EntryStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s EntryStatus) Terminal() bool {
	return s != StatusWaiting && s != StatusOffered
}

// QueueKey identifies the slot a set of waitlist entries compete for.
// Entries sharing a key form one FIFO queue; at most one of them may
// hold an outstanding offer at any instant.
type QueueKey struct {
	ResourceID uint64
	ServiceID  uint64
	Date       time.Time // UTC midnight
	Time       TimeOfDay
}

// WaitlistEntry is a customer's claim on a desired slot.  The offer
// token and expiry are set together when an offer is issued and
// cleared together on any transition out of OFFERED.  ManageToken is
// issued at enqueue time and authorises voluntary cancellation and
// status lookups by the claimant.
type WaitlistEntry struct {
	ID             uint64      // waitlist_entries.id
	ResourceID     uint64      // waitlist_entries.resource_id
	ServiceID      uint64      // waitlist_entries.service_id
	Date           time.Time   // waitlist_entries.slot_date, UTC midnight
	Time           TimeOfDay   // waitlist_entries.slot_time
	CustomerID     *uint64     // waitlist_entries.customer_id (nullable for guests)
	Name           string      // waitlist_entries.name
	Email          string      // waitlist_entries.email
	Phone          string      // waitlist_entries.phone
	Status         EntryStatus // waitlist_entries.status
	OfferToken     *string     // waitlist_entries.offer_token (set only while OFFERED)
	OfferExpiresAt *time.Time  // waitlist_entries.offer_expires_at (set only while OFFERED)
	ManageToken    string      // waitlist_entries.manage_token
	CreatedAt      time.Time   // waitlist_entries.created_at, defines FIFO order
	UpdatedAt      time.Time   // waitlist_entries.updated_at
}

// Key returns the queue key the entry competes under.
func (e *WaitlistEntry) Key() QueueKey {
	return QueueKey{
		ResourceID: e.ResourceID,
		ServiceID:  e.ServiceID,
		Date:       DateOf(e.Date),
		Time:       e.Time,
	}
}

// HasContact reports whether the entry carries enough identity to
// reach the claimant: a customer id, or at least one of email/phone.
func (e *WaitlistEntry) HasContact() bool {
	return e.CustomerID != nil || e.Email != "" || e.Phone != ""
}
