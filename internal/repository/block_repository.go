package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dunskii/booking-waitlist/internal/model"
)

// BlockRepo provides data access to the blocks table.  Blocks are
// advisory configuration written rarely by administrators and read on
// every availability check, so writes use plain last-writer-wins
// updates while reads stay index-friendly.  All date columns are DATE,
// time columns are TIME and timestamps are stored in UTC.
type BlockRepo struct {
	db *sql.DB
}

// NewBlockRepo returns a BlockRepo bound to the provided database.
func NewBlockRepo(db *sql.DB) *BlockRepo { return &BlockRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *BlockRepo) DB() *sql.DB { return r.db }

const blockColumns = `id, resource_id, start_date, end_date, all_day, start_time, end_time, kind, reason, recurrence, recurrence_end, created_at, updated_at`

// Create inserts a block and populates its generated ID.  Validation
// (end date ordering, enum membership) is the handler's job; the
// repository stores what it is given.
func (r *BlockRepo) Create(ctx context.Context, b *model.Block) error {
	const q = `INSERT INTO blocks (resource_id, start_date, end_date, all_day, start_time, end_time, kind, reason, recurrence, recurrence_end)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, blockArgs(b)...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// Update overwrites all mutable columns of a block.  Returns
// ErrNotFound when the id does not exist.
func (r *BlockRepo) Update(ctx context.Context, b *model.Block) error {
	const q = `UPDATE blocks SET resource_id=?, start_date=?, end_date=?, all_day=?, start_time=?, end_time=?, kind=?, reason=?, recurrence=?, recurrence_end=?, updated_at=UTC_TIMESTAMP()
	           WHERE id=?`
	args := append(blockArgs(b), b.ID)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-change update; confirm
		// existence before reporting not found.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM blocks WHERE id=?`, b.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a block by id.  Returns ErrNotFound when no row was
// deleted.
func (r *BlockRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single block.  Returns ErrNotFound when missing.
func (r *BlockRepo) GetByID(ctx context.Context, id uint64) (*model.Block, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id=?`, id)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListByResource returns all blocks that could ever apply to a
// resource (its own plus global ones), newest first.  Used by the
// administrative listing endpoint.
func (r *BlockRepo) ListByResource(ctx context.Context, resourceID uint64) ([]model.Block, error) {
	const q = `SELECT ` + blockColumns + ` FROM blocks
	           WHERE resource_id IS NULL OR resource_id = ?
	           ORDER BY created_at DESC, id DESC`
	return r.queryBlocks(ctx, q, resourceID)
}

// Candidates returns the blocks that could apply to the resource on
// the given date: global or resource-specific, anchored on or before
// the date, and either recurring (the matcher decides coverage) or
// with a date range that has not yet elapsed.  The oracle applies the
// precedence rules; this query only narrows the set.
func (r *BlockRepo) Candidates(ctx context.Context, resourceID uint64, date time.Time) ([]model.Block, error) {
	const q = `SELECT ` + blockColumns + ` FROM blocks
	           WHERE (resource_id IS NULL OR resource_id = ?)
	             AND start_date <= ?
	             AND (recurrence <> 'NONE' OR COALESCE(end_date, start_date) >= ?)
	           ORDER BY id`
	day := model.DateOf(date).Format("2006-01-02")
	return r.queryBlocks(ctx, q, resourceID, day, day)
}

// PurgeElapsed deletes non-recurring blocks whose entire range ended
// before the cutoff date.  Recurring blocks are never purged here; a
// rule without a recurrence end is in force indefinitely.  Returns the
// number of rows removed.
func (r *BlockRepo) PurgeElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM blocks
	           WHERE recurrence = 'NONE' AND COALESCE(end_date, start_date) < ?`
	res, err := r.db.ExecContext(ctx, q, model.DateOf(cutoff).Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BlockRepo) queryBlocks(ctx context.Context, q string, args ...interface{}) ([]model.Block, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	blocks := make([]model.Block, 0)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// blockArgs flattens a block into the insert/update argument order.
// Global scope maps to a NULL resource_id; times are stored as
// HH:MM:SS strings and nil when the block is all-day.
func blockArgs(b *model.Block) []interface{} {
	var resourceID interface{}
	if id, ok := b.Scope.ResourceID(); ok {
		resourceID = id
	}
	var endDate interface{}
	if b.EndDate != nil {
		endDate = model.DateOf(*b.EndDate).Format("2006-01-02")
	}
	var startTime, endTime interface{}
	if !b.AllDay {
		startTime = b.StartTime.String()
		endTime = b.EndTime.String()
	}
	var recurrenceEnd interface{}
	if b.RecurrenceEnd != nil {
		recurrenceEnd = model.DateOf(*b.RecurrenceEnd).Format("2006-01-02")
	}
	return []interface{}{
		resourceID,
		model.DateOf(b.StartDate).Format("2006-01-02"),
		endDate,
		b.AllDay,
		startTime,
		endTime,
		string(b.Kind),
		b.Reason,
		string(b.Recurrence),
		recurrenceEnd,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*model.Block, error) {
	var (
		b             model.Block
		resourceID    sql.NullInt64
		endDate       sql.NullTime
		startTime     sql.NullString
		endTime       sql.NullString
		kind          string
		rule          string
		recurrenceEnd sql.NullTime
	)
	err := row.Scan(&b.ID, &resourceID, &b.StartDate, &endDate, &b.AllDay,
		&startTime, &endTime, &kind, &b.Reason, &rule, &recurrenceEnd,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if resourceID.Valid {
		b.Scope = model.OneResource(uint64(resourceID.Int64))
	} else {
		b.Scope = model.AllResources()
	}
	if endDate.Valid {
		d := model.DateOf(endDate.Time)
		b.EndDate = &d
	}
	if startTime.Valid {
		if t, err := model.ParseTimeOfDay(startTime.String); err == nil {
			b.StartTime = t
		}
	}
	if endTime.Valid {
		if t, err := model.ParseTimeOfDay(endTime.String); err == nil {
			b.EndTime = t
		}
	}
	b.Kind = model.BlockKind(kind)
	b.Recurrence = model.Rule(rule)
	if recurrenceEnd.Valid {
		d := model.DateOf(recurrenceEnd.Time)
		b.RecurrenceEnd = &d
	}
	b.StartDate = model.DateOf(b.StartDate)
	return &b, nil
}
