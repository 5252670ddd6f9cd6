package repository

import (
	"context"
	"database/sql"

	"github.com/dunskii/booking-waitlist/internal/model"
)

// BookingRepo is the default Booking Store collaborator: it commits an
// accepted offer into the bookings table.  Deployments that keep
// bookings in a separate system substitute their own implementation of
// offer.BookingStore; the coordinator only depends on the interface.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a booking for the accepted waitlist entry and returns
// the booking id.  The waitlist entry id is stored for reconciliation:
// an ACCEPTED entry without a matching booking row is the
// "accepted but not booked" inconsistency operators search for.
func (r *BookingRepo) Create(ctx context.Context, e *model.WaitlistEntry) (uint64, error) {
	const q = `INSERT INTO bookings (resource_id, service_id, slot_date, slot_time, customer_id, name, email, phone, waitlist_entry_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var customerID interface{}
	if e.CustomerID != nil {
		customerID = *e.CustomerID
	}
	res, err := r.db.ExecContext(ctx, q,
		e.ResourceID, e.ServiceID,
		model.DateOf(e.Date).Format("2006-01-02"), e.Time.String(),
		customerID, e.Name, e.Email, e.Phone, e.ID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
