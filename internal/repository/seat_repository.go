package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// SeatRepo provides access to the local seat mirror.  Rows are
// regenerated wholesale by the mirror sync and locked individually by the
// sale path.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// insertChunk bounds the number of rows per multi-row INSERT so large
// grids stay below max_allowed_packet and the placeholder limit.
const insertChunk = 500

// ListByEvent returns all mirror seats of an event ordered by position.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, seat_row, seat_col, status, occupant, created_at
			   FROM seats
			   WHERE event_id = ?
			   ORDER BY seat_row, seat_col`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSeat(s rowScanner) (*model.Seat, error) {
	var (
		seat     model.Seat
		status   string
		occupant sql.NullString
	)
	if err := s.Scan(&seat.ID, &seat.EventID, &seat.Row, &seat.Col, &status, &occupant, &seat.CreatedAt); err != nil {
		return nil, err
	}
	seat.Status = model.SeatStatus(status)
	if occupant.Valid {
		o := occupant.String
		seat.Occupant = &o
	}
	return &seat, nil
}

// LockByPositionTx selects the seat at (row, col) with FOR UPDATE so a
// concurrent mirror regeneration blocks until tx ends.
func (r *SeatRepo) LockByPositionTx(ctx context.Context, tx *sql.Tx, eventID uint64, row, col int) (*model.Seat, error) {
	const q = `SELECT id, event_id, seat_row, seat_col, status, occupant, created_at
			   FROM seats
			   WHERE event_id = ? AND seat_row = ? AND seat_col = ?
			   FOR UPDATE`
	s, err := scanSeat(tx.QueryRowContext(ctx, q, eventID, row, col))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// ReplaceTx deletes every seat of the event and inserts seats in chunks.
func (r *SeatRepo) ReplaceTx(ctx context.Context, tx *sql.Tx, eventID uint64, seats []model.Seat) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("delete seats: %w", err)
	}
	for start := 0; start < len(seats); start += insertChunk {
		end := start + insertChunk
		if end > len(seats) {
			end = len(seats)
		}
		if err := insertSeats(ctx, tx, eventID, seats[start:end]); err != nil {
			return fmt.Errorf("insert seats: %w", err)
		}
	}
	return nil
}

func insertSeats(ctx context.Context, tx *sql.Tx, eventID uint64, seats []model.Seat) error {
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (event_id, seat_row, seat_col, status, occupant) VALUES `)
	args := make([]any, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		var occupant any
		if s.Occupant != nil {
			occupant = *s.Occupant
		}
		args = append(args, eventID, s.Row, s.Col, string(s.Status), occupant)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// MarkSoldTx flips each referenced seat to SOLD and records its occupant.
// A seat that vanished since it was locked is reported as ErrSeatNotFound.
func (r *SeatRepo) MarkSoldTx(ctx context.Context, tx *sql.Tx, eventID uint64, seats []model.SaleSeat) error {
	const q = `UPDATE seats SET status = 'SOLD', occupant = ? WHERE id = ? AND event_id = ?`
	for _, s := range seats {
		res, err := tx.ExecContext(ctx, q, s.Occupant, s.SeatID, eventID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("seat %d (%d,%d): %w", s.SeatID, s.Row, s.Col, ErrSeatNotFound)
		}
	}
	return nil
}
