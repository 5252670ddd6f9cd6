package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
)

// WaitlistRepo provides data access to the waitlist_entries table.
// Entry status is the one genuinely contended piece of state in the
// system, so every transition is a single conditional UPDATE guarded
// by the expected prior status; callers learn whether they won the
// race from the affected row count, never from a separate read.  All
// timestamps are stored in UTC.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a WaitlistRepo bound to the provided database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const entryColumns = `id, resource_id, service_id, slot_date, slot_time, customer_id, name, email, phone, status, offer_token, offer_expires_at, manage_token, created_at, updated_at`

// Enqueue inserts a new WAITING entry for the desired slot, generating
// its manage token, and populates the generated ID, token, status and
// timestamps on e.  created_at defines the FIFO position; ties on the
// timestamp are broken by ascending id, which the insert order makes a
// total order.
func (r *WaitlistRepo) Enqueue(ctx context.Context, e *model.WaitlistEntry) error {
	token, err := randomToken(24)
	if err != nil {
		return err
	}
	const q = `INSERT INTO waitlist_entries (resource_id, service_id, slot_date, slot_time, customer_id, name, email, phone, status, manage_token)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'WAITING', ?)`
	var customerID interface{}
	if e.CustomerID != nil {
		customerID = *e.CustomerID
	}
	res, err := r.db.ExecContext(ctx, q,
		e.ResourceID, e.ServiceID,
		model.DateOf(e.Date).Format("2006-01-02"), e.Time.String(),
		customerID, e.Name, e.Email, e.Phone, token)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.Status = model.StatusWaiting
	e.ManageToken = token
	// Read back DB-assigned timestamps so the caller sees the row as stored.
	stored, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	e.CreatedAt = stored.CreatedAt
	e.UpdatedAt = stored.UpdatedAt
	return nil
}

// GetByID fetches a single entry.  Returns ErrNotFound when missing.
func (r *WaitlistRepo) GetByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM waitlist_entries WHERE id=?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Head returns the earliest-enqueued WAITING entry for the queue key,
// or nil when the queue is empty.  It does not mutate anything; the
// claim happens in MarkOffered.
func (r *WaitlistRepo) Head(ctx context.Context, key model.QueueKey) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM waitlist_entries
	           WHERE resource_id=? AND service_id=? AND slot_date=? AND slot_time=? AND status='WAITING'
	           ORDER BY created_at, id
	           LIMIT 1`
	row := r.db.QueryRowContext(ctx, q,
		key.ResourceID, key.ServiceID,
		model.DateOf(key.Date).Format("2006-01-02"), key.Time.String())
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// MarkOffered atomically transitions the entry WAITING -> OFFERED,
// setting the offer token and expiry in the same statement.  The
// update is doubly guarded: the row must still be WAITING, and no
// other entry for the same queue key may currently hold an offer.
// The second guard keeps the at-most-one-offer-per-key invariant even
// when duplicate slot-freed events race past the head lookup.  Returns
// true when this caller won the transition.
func (r *WaitlistRepo) MarkOffered(ctx context.Context, e *model.WaitlistEntry, token string, expiresAt time.Time) (bool, error) {
	// The derived table works around MySQL's refusal to reference the
	// updated table directly in a subquery (error 1093).
	const q = `UPDATE waitlist_entries
	           SET status='OFFERED', offer_token=?, offer_expires_at=?, updated_at=UTC_TIMESTAMP()
	           WHERE id=? AND status='WAITING'
	             AND NOT EXISTS (
	               SELECT 1 FROM (
	                 SELECT id FROM waitlist_entries
	                 WHERE resource_id=? AND service_id=? AND slot_date=? AND slot_time=? AND status='OFFERED'
	               ) held
	             )`
	res, err := r.db.ExecContext(ctx, q,
		token, expiresAt.UTC().Format("2006-01-02 15:04:05"),
		e.ID,
		e.ResourceID, e.ServiceID,
		model.DateOf(e.Date).Format("2006-01-02"), e.Time.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Transition atomically moves the entry from one status to another,
// clearing the offer token and expiry in the same statement (they are
// only meaningful while OFFERED).  Returns true when this caller won
// the transition, false when the row was no longer in the expected
// prior status.
func (r *WaitlistRepo) Transition(ctx context.Context, id uint64, from, to model.EntryStatus) (bool, error) {
	const q = `UPDATE waitlist_entries
	           SET status=?, offer_token=NULL, offer_expires_at=NULL, updated_at=UTC_TIMESTAMP()
	           WHERE id=? AND status=?`
	res, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListExpiredOffers returns all entries still OFFERED whose expiry
// lies strictly before now.  The sweeper feeds each one back through
// the coordinator; expiry itself stays a guarded transition so a stale
// listing is harmless.
func (r *WaitlistRepo) ListExpiredOffers(ctx context.Context, now time.Time) ([]model.WaitlistEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM waitlist_entries
	           WHERE status='OFFERED' AND offer_expires_at < ?
	           ORDER BY offer_expires_at, id`
	rows, err := r.db.QueryContext(ctx, q, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// PurgeTerminal deletes entries that reached a terminal status before
// the cutoff.  Terminal rows are kept for audit until then.  Returns
// the number of rows removed.
func (r *WaitlistRepo) PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM waitlist_entries
	           WHERE status IN ('ACCEPTED','DECLINED','EXPIRED','CANCELLED') AND updated_at < ?`
	res, err := r.db.ExecContext(ctx, q, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEntry(row rowScanner) (*model.WaitlistEntry, error) {
	var (
		e          model.WaitlistEntry
		slotTime   string
		customerID sql.NullInt64
		status     string
		offerToken sql.NullString
		offerExp   sql.NullTime
	)
	err := row.Scan(&e.ID, &e.ResourceID, &e.ServiceID, &e.Date, &slotTime,
		&customerID, &e.Name, &e.Email, &e.Phone, &status,
		&offerToken, &offerExp, &e.ManageToken, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Date = model.DateOf(e.Date)
	if t, perr := model.ParseTimeOfDay(slotTime); perr == nil {
		e.Time = t
	}
	if customerID.Valid {
		cid := uint64(customerID.Int64)
		e.CustomerID = &cid
	}
	e.Status = model.EntryStatus(status)
	if offerToken.Valid {
		tok := offerToken.String
		e.OfferToken = &tok
	}
	if offerExp.Valid {
		exp := offerExp.Time.UTC()
		e.OfferExpiresAt = &exp
	}
	return &e, nil
}

// randomToken generates a hex string from n bytes of cryptographically
// secure random data.  Used for manage tokens handed to claimants.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
