package repository

import (
    "context"
    "database/sql"
)

// SequenceRepo hands out values from named counters in the
// booking_sequences table.  Each call performs a single atomic
// increment on the server, so concurrent callers (across processes)
// never observe the same value.
type SequenceRepo struct {
    db   *sql.DB
    name string
}

// NewSequenceRepo returns a counter bound to the named row.  The row is
// created by database.Migrate.
func NewSequenceRepo(db *sql.DB, name string) *SequenceRepo {
    return &SequenceRepo{db: db, name: name}
}

// Next increments the counter and returns the new value.  LAST_INSERT_ID(expr)
// makes the incremented value available on the same connection without a
// second round trip or a surrounding transaction.
func (r *SequenceRepo) Next(ctx context.Context) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE booking_sequences SET value = LAST_INSERT_ID(value + 1) WHERE name = ?", r.name)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    if n == 0 {
        return 0, ErrNotFound
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}
