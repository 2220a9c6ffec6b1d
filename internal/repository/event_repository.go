package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors.Is against driver errors

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key
// violation.
const mysqlDuplicateEntry = 1062

// EventRepo manages persistence for events.  Events are written by the
// catalog sync only; the HTTP layer reads them.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

const eventColumns = `id, remote_id, title, description, event_date, event_time,
	   seat_rows, seat_cols, total_seats, unit_price, is_active, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		e        model.Event
		remoteID sql.NullInt64
		desc     sql.NullString
		evTime   sql.NullString
	)
	err := s.Scan(&e.ID, &remoteID, &e.Title, &desc, &e.Date, &evTime,
		&e.SeatRows, &e.SeatCols, &e.TotalSeats, &e.UnitPrice, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		id := remoteID.Int64
		e.RemoteID = &id
	}
	e.Description = desc.String
	e.Time = evTime.String
	return &e, nil
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetByID fetches an event by its local id.  Returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetByRemoteID fetches an event by the authority's id.
func (r *EventRepo) GetByRemoteID(ctx context.Context, remoteID int64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE remote_id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, q, remoteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// List returns every event ordered by date then id, inactive ones included.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY event_date, event_time, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListActiveRemote returns active events linked to the authority.  The
// catalog sync uses it to find events that vanished upstream.
func (r *EventRepo) ListActiveRemote(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE is_active = 1 AND remote_id IS NOT NULL ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// SaveTx inserts or updates e inside tx.  TotalSeats is derived from the
// grid shape so the rows*cols invariant holds for every written row.
func (r *EventRepo) SaveTx(ctx context.Context, tx *sql.Tx, e *model.Event) error {
	e.TotalSeats = e.SeatRows * e.SeatCols
	var remoteID any
	if e.RemoteID != nil {
		remoteID = *e.RemoteID
	}
	var evTime any
	if e.Time != "" {
		evTime = e.Time
	}
	date := e.Date.Format("2006-01-02")

	if e.ID == 0 {
		const q = `INSERT INTO events (remote_id, title, description, event_date, event_time,
				   seat_rows, seat_cols, total_seats, unit_price, is_active)
				   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, remoteID, e.Title, e.Description, date, evTime,
			e.SeatRows, e.SeatCols, e.TotalSeats, e.UnitPrice, e.IsActive)
		if err != nil {
			return mapWriteErr(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		e.ID = uint64(id)
		return nil
	}

	const q = `UPDATE events SET remote_id = ?, title = ?, description = ?, event_date = ?, event_time = ?,
			   seat_rows = ?, seat_cols = ?, total_seats = ?, unit_price = ?, is_active = ?
			   WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, remoteID, e.Title, e.Description, date, evTime,
		e.SeatRows, e.SeatCols, e.TotalSeats, e.UnitPrice, e.IsActive, e.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	// MySQL reports 0 affected rows when nothing changed, so only a missing
	// row is an error here.
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, e.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

// SetActiveTx toggles is_active.  Seats and sales of the event are left
// alone.
func (r *EventRepo) SetActiveTx(ctx context.Context, tx *sql.Tx, id uint64, active bool) error {
	const q = `UPDATE events SET is_active = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, active, id)
	return err
}

func mapWriteErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrConflict
	}
	return err
}
