package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// SQLStore implements Store on top of MySQL by composing the per-table
// repositories.
type SQLStore struct {
	db     *sql.DB
	Events *EventRepo
	Seats  *SeatRepo
	Sales  *SaleRepo
}

// NewSQLStore wires the repositories around db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:     db,
		Events: NewEventRepo(db),
		Seats:  NewSeatRepo(db),
		Sales:  NewSaleRepo(db),
	}
}

// DB exposes the underlying handle for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	return s.Events.GetByID(ctx, id)
}

func (s *SQLStore) GetEventByRemoteID(ctx context.Context, remoteID int64) (*model.Event, error) {
	return s.Events.GetByRemoteID(ctx, remoteID)
}

func (s *SQLStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.Events.List(ctx)
}

func (s *SQLStore) ListActiveRemoteEvents(ctx context.Context) ([]model.Event, error) {
	return s.Events.ListActiveRemote(ctx)
}

func (s *SQLStore) ListSeats(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	return s.Seats.ListByEvent(ctx, eventID)
}

func (s *SQLStore) ListSales(ctx context.Context, eventID uint64) ([]model.Sale, error) {
	return s.Sales.ListByEvent(ctx, eventID)
}

// InTx runs fn in a REPEATABLE READ transaction.  Seat reads that must not
// race with a mirror regeneration use LockSeat, which takes row locks.
func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &sqlTx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// sqlTx adapts the *Tx repository methods to the Tx interface.
type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) SaveEvent(ctx context.Context, e *model.Event) error {
	return t.store.Events.SaveTx(ctx, t.tx, e)
}

func (t *sqlTx) SetEventActive(ctx context.Context, id uint64, active bool) error {
	return t.store.Events.SetActiveTx(ctx, t.tx, id, active)
}

func (t *sqlTx) LockSeat(ctx context.Context, eventID uint64, row, col int) (*model.Seat, error) {
	return t.store.Seats.LockByPositionTx(ctx, t.tx, eventID, row, col)
}

func (t *sqlTx) ReplaceSeats(ctx context.Context, eventID uint64, seats []model.Seat) error {
	return t.store.Seats.ReplaceTx(ctx, t.tx, eventID, seats)
}

func (t *sqlTx) MarkSeatsSold(ctx context.Context, eventID uint64, seats []model.SaleSeat) error {
	return t.store.Seats.MarkSoldTx(ctx, t.tx, eventID, seats)
}

func (t *sqlTx) InsertSale(ctx context.Context, s *model.Sale) error {
	return t.store.Sales.CreateTx(ctx, t.tx, s)
}

var _ Store = (*SQLStore)(nil)
