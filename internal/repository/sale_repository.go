package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// SaleRepo persists confirmed sales and the seats they cover.  Sales are
// only ever inserted; there is no update path.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo returns a new SaleRepo bound to the given database.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// CreateTx inserts the sale and its sale_seats rows within tx and
// populates s.ID.  The caller must commit or roll back the transaction.
func (r *SaleRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Sale) error {
	const q = `INSERT INTO sales (event_id, remote_sale_id, sale_date, status, description, total_price, seat_count)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.EventID, s.RemoteSaleID, s.SaleDate.UTC(), s.Status,
		s.Description, s.TotalPrice, s.SeatCount)
	if err != nil {
		return mapWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	if len(s.Seats) == 0 {
		return nil
	}

	query := `INSERT INTO sale_seats (sale_id, event_id, seat_id, seat_row, seat_col, occupant) VALUES `
	args := make([]any, 0, len(s.Seats)*6)
	for i := range s.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		ss := &s.Seats[i]
		ss.SaleID = s.ID
		ss.EventID = s.EventID
		args = append(args, s.ID, s.EventID, ss.SeatID, ss.Row, ss.Col, ss.Occupant)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// ListByEvent returns the sales of an event with their covered seats,
// newest first.
func (r *SaleRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Sale, error) {
	const q = `SELECT id, event_id, remote_sale_id, sale_date, status, description, total_price, seat_count, created_at
			   FROM sales WHERE event_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	var sales []model.Sale
	index := map[uint64]int{}
	for rows.Next() {
		var s model.Sale
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.EventID, &s.RemoteSaleID, &s.SaleDate, &s.Status, &desc,
			&s.TotalPrice, &s.SeatCount, &s.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		s.Description = desc.String
		index[s.ID] = len(sales)
		sales = append(sales, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, nil
	}

	const qs = `SELECT sale_id, event_id, seat_id, seat_row, seat_col, occupant
				FROM sale_seats WHERE event_id = ? ORDER BY sale_id, seat_row, seat_col`
	srows, err := r.db.QueryContext(ctx, qs, eventID)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var ss model.SaleSeat
		if err := srows.Scan(&ss.SaleID, &ss.EventID, &ss.SeatID, &ss.Row, &ss.Col, &ss.Occupant); err != nil {
			return nil, err
		}
		if i, ok := index[ss.SaleID]; ok {
			sales[i].Seats = append(sales[i].Seats, ss)
		}
	}
	return sales, srows.Err()
}
