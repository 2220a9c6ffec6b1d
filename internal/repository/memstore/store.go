// Package memstore is an in-memory implementation of repository.Store.
// Events, seats and sales live in separate maps keyed by id and refer to
// each other by id only.  A single mutex serializes transactions; a failed
// transaction restores the snapshot taken when it began.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

type state struct {
	events map[uint64]model.Event
	seats  map[uint64]model.Seat
	sales  map[uint64]model.Sale
	nextID uint64
}

func (s *state) clone() state {
	c := state{
		events: make(map[uint64]model.Event, len(s.events)),
		seats:  make(map[uint64]model.Seat, len(s.seats)),
		sales:  make(map[uint64]model.Sale, len(s.sales)),
		nextID: s.nextID,
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.sales {
		v.Seats = append([]model.SaleSeat(nil), v.Seats...)
		c.sales[k] = v
	}
	return c
}

func (s *state) id() uint64 {
	s.nextID++
	return s.nextID
}

// Store is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		st: state{
			events: map[uint64]model.Event{},
			seats:  map[uint64]model.Seat{},
			sales:  map[uint64]model.Sale{},
		},
		now: time.Now,
	}
}

// PutEvent stores e as is, assigning an id when e.ID is zero, and returns
// the stored copy.  It bypasses InTx and exists for seeding.
func (s *Store) PutEvent(e model.Event) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.st.id()
	} else if e.ID > s.st.nextID {
		s.st.nextID = e.ID
	}
	e.TotalSeats = e.SeatRows * e.SeatCols
	s.st.events[e.ID] = e
	return e
}

// PutSeats replaces the mirror of an event without a transaction.
func (s *Store) PutSeats(eventID uint64, seats []model.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	(&memTx{s: s}).replaceSeats(eventID, seats)
}

func (s *Store) GetEvent(_ context.Context, id uint64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &e, nil
}

func (s *Store) GetEventByRemoteID(_ context.Context, remoteID int64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.st.events {
		if e.RemoteID != nil && *e.RemoteID == remoteID {
			e := e
			return &e, nil
		}
	}
	return nil, repository.ErrEventNotFound
}

func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEvents(func(model.Event) bool { return true }), nil
}

func (s *Store) ListActiveRemoteEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEvents(func(e model.Event) bool { return e.IsActive && e.RemoteID != nil }), nil
}

func (s *Store) sortedEvents(keep func(model.Event) bool) []model.Event {
	var out []model.Event
	for _, e := range s.st.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListSeats(_ context.Context, eventID uint64) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Seat
	for _, seat := range s.st.seats {
		if seat.EventID == eventID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}

func (s *Store) ListSales(_ context.Context, eventID uint64) ([]model.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Sale
	for _, sale := range s.st.sales {
		if sale.EventID == eventID {
			sale.Seats = append([]model.SaleSeat(nil), sale.Seats...)
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// InTx holds the store lock for the duration of fn.  fn must only use tx;
// calling the Store's own read methods from inside fn deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn(ctx, &memTx{s: s})
}

type memTx struct {
	s *Store
}

func (t *memTx) SaveEvent(_ context.Context, e *model.Event) error {
	st := &t.s.st
	if e.RemoteID != nil {
		for id, other := range st.events {
			if id != e.ID && other.RemoteID != nil && *other.RemoteID == *e.RemoteID {
				return repository.ErrConflict
			}
		}
	}
	e.TotalSeats = e.SeatRows * e.SeatCols
	now := t.s.now()
	if e.ID == 0 {
		e.ID = st.id()
		e.CreatedAt = now
	} else if _, ok := st.events[e.ID]; !ok {
		return repository.ErrEventNotFound
	}
	e.UpdatedAt = now
	st.events[e.ID] = *e
	return nil
}

func (t *memTx) SetEventActive(_ context.Context, id uint64, active bool) error {
	e, ok := t.s.st.events[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	e.IsActive = active
	t.s.st.events[id] = e
	return nil
}

func (t *memTx) LockSeat(_ context.Context, eventID uint64, row, col int) (*model.Seat, error) {
	for _, seat := range t.s.st.seats {
		if seat.EventID == eventID && seat.Row == row && seat.Col == col {
			seat := seat
			return &seat, nil
		}
	}
	return nil, repository.ErrSeatNotFound
}

func (t *memTx) ReplaceSeats(_ context.Context, eventID uint64, seats []model.Seat) error {
	seen := make(map[model.Position]bool, len(seats))
	for _, seat := range seats {
		p := model.Position{Row: seat.Row, Col: seat.Col}
		if seen[p] {
			return fmt.Errorf("duplicate seat (%d,%d): %w", p.Row, p.Col, repository.ErrConflict)
		}
		seen[p] = true
	}
	t.replaceSeats(eventID, seats)
	return nil
}

func (t *memTx) replaceSeats(eventID uint64, seats []model.Seat) {
	st := &t.s.st
	for id, seat := range st.seats {
		if seat.EventID == eventID {
			delete(st.seats, id)
		}
	}
	now := t.s.now()
	for _, seat := range seats {
		seat.ID = st.id()
		seat.EventID = eventID
		seat.CreatedAt = now
		st.seats[seat.ID] = seat
	}
}

func (t *memTx) MarkSeatsSold(_ context.Context, eventID uint64, seats []model.SaleSeat) error {
	st := &t.s.st
	for _, ss := range seats {
		seat, ok := st.seats[ss.SeatID]
		if !ok || seat.EventID != eventID {
			return fmt.Errorf("seat %d (%d,%d): %w", ss.SeatID, ss.Row, ss.Col, repository.ErrSeatNotFound)
		}
		occupant := ss.Occupant
		seat.Status = model.SeatSold
		seat.Occupant = &occupant
		st.seats[seat.ID] = seat
	}
	return nil
}

func (t *memTx) InsertSale(_ context.Context, s *model.Sale) error {
	st := &t.s.st
	if _, ok := st.events[s.EventID]; !ok {
		return repository.ErrEventNotFound
	}
	s.ID = st.id()
	s.CreatedAt = t.s.now()
	for i := range s.Seats {
		s.Seats[i].SaleID = s.ID
		s.Seats[i].EventID = s.EventID
	}
	stored := *s
	stored.Seats = append([]model.SaleSeat(nil), s.Seats...)
	st.sales[s.ID] = stored
	return nil
}

var _ repository.Store = (*Store)(nil)
