package repository

import (
	"context"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// Reader is the read-only half of the store.  Reads outside a transaction
// see committed data only.
type Reader interface {
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
	GetEventByRemoteID(ctx context.Context, remoteID int64) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	// ListActiveRemoteEvents returns active events that carry a remote id.
	ListActiveRemoteEvents(ctx context.Context) ([]model.Event, error)
	ListSeats(ctx context.Context, eventID uint64) ([]model.Seat, error)
	ListSales(ctx context.Context, eventID uint64) ([]model.Sale, error)
}

// Tx is the set of writes the engine performs.  All of them run inside a
// transaction opened by Store.InTx.
type Tx interface {
	// SaveEvent inserts e when e.ID is zero and updates it otherwise.  On
	// insert the generated id is written back to e.
	SaveEvent(ctx context.Context, e *model.Event) error
	SetEventActive(ctx context.Context, id uint64, active bool) error

	// LockSeat loads the mirror seat at (row, col) and locks it until the
	// transaction ends.  ErrSeatNotFound when no such seat exists.
	LockSeat(ctx context.Context, eventID uint64, row, col int) (*model.Seat, error)
	// ReplaceSeats deletes every mirror seat of the event and inserts seats.
	ReplaceSeats(ctx context.Context, eventID uint64, seats []model.Seat) error
	// MarkSeatsSold flips the seats referenced by SeatID to SOLD and stores
	// their occupant.
	MarkSeatsSold(ctx context.Context, eventID uint64, seats []model.SaleSeat) error

	// InsertSale writes the sale and its covered seats and sets s.ID.
	InsertSale(ctx context.Context, s *model.Sale) error
}

// Store combines reads with transactional writes.  InTx commits when fn
// returns nil and rolls back otherwise; the error from fn is returned
// unchanged.
type Store interface {
	Reader
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
