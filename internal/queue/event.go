// Package queue defines message payloads exchanged over the message
// broker.  The external Notification collaborator consumes these to
// reach claimants; this service only guarantees best-effort delivery
// into the broker, never blocking a state transition on it.
package queue

// OfferIssuedEvent is published when a freed slot is offered to the
// head of a waitlist queue.  It carries everything a notification
// renderer needs: who to contact, which slot, and the token plus
// deadline the claimant responds with.
type OfferIssuedEvent struct {
	EntryID    uint64  `json:"entry_id"`
	ResourceID uint64  `json:"resource_id"`
	ServiceID  uint64  `json:"service_id"`
	SlotDate   string  `json:"slot_date"` // YYYY-MM-DD
	SlotTime   string  `json:"slot_time"` // HH:MM
	CustomerID *uint64 `json:"customer_id,omitempty"`
	Name       string  `json:"name"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	OfferToken string  `json:"offer_token"`
	ExpiresAt  string  `json:"expires_at"` // RFC3339 UTC
	IssuedAt   string  `json:"issued_at"`  // RFC3339 UTC
}

// OfferClosedEvent is published when an offer leaves the OFFERED state
// for any reason, so downstream channels can tell the claimant the
// outcome (confirmation on accept, a courtesy note otherwise).
type OfferClosedEvent struct {
	EntryID    uint64  `json:"entry_id"`
	ResourceID uint64  `json:"resource_id"`
	ServiceID  uint64  `json:"service_id"`
	SlotDate   string  `json:"slot_date"`
	SlotTime   string  `json:"slot_time"`
	CustomerID *uint64 `json:"customer_id,omitempty"`
	Name       string  `json:"name"`
	Email      string  `json:"email,omitempty"`
	Outcome    string  `json:"outcome"` // ACCEPTED | DECLINED | EXPIRED | CANCELLED
	ClosedAt   string  `json:"closed_at"` // RFC3339 UTC
}
