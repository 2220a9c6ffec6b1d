package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository/memstore"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAuthority struct {
	mu sync.Mutex

	catalog    []authority.RemoteEvent
	catalogErr error

	sparse    map[int64][]authority.RemoteSeatState
	sparseErr error

	snapshots   map[int64][]authority.RemoteSeat
	snapshotErr map[int64]error

	holdAck   *authority.HoldAck
	holdErr   error
	holdCalls [][]authority.Position

	saleResp  *authority.SaleResponse
	saleErr   error
	saleCalls []authority.SaleRequest
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		sparse:      map[int64][]authority.RemoteSeatState{},
		snapshots:   map[int64][]authority.RemoteSeat{},
		snapshotErr: map[int64]error{},
		holdAck:     &authority.HoldAck{Accepted: true},
	}
}

func (f *fakeAuthority) FetchCatalog(context.Context) ([]authority.RemoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog, f.catalogErr
}

func (f *fakeAuthority) FetchSeatSnapshot(_ context.Context, id int64) ([]authority.RemoteSeat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snapshotErr[id]; err != nil {
		return nil, err
	}
	return f.snapshots[id], nil
}

func (f *fakeAuthority) FetchSparseSeatState(_ context.Context, id int64) ([]authority.RemoteSeatState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sparseErr != nil {
		return nil, f.sparseErr
	}
	return f.sparse[id], nil
}

func (f *fakeAuthority) SubmitHold(_ context.Context, _ int64, seats []authority.Position) (*authority.HoldAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdCalls = append(f.holdCalls, seats)
	return f.holdAck, f.holdErr
}

func (f *fakeAuthority) SubmitSale(_ context.Context, req authority.SaleRequest) (*authority.SaleResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saleCalls = append(f.saleCalls, req)
	return f.saleResp, f.saleErr
}

type recordingPublisher struct {
	sales []model.Sale
	err   error
}

func (p *recordingPublisher) PublishSaleConfirmed(_ context.Context, s model.Sale) error {
	p.sales = append(p.sales, s)
	return p.err
}

type stubLocker struct {
	ok       bool
	err      error
	released int
}

func (l *stubLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { l.released++; return nil }, l.ok, l.err
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixedClock(t time.Time) Clock { return ClockFunc(func() time.Time { return t }) }

func intp(v int) *int { return &v }

func remoteSeat(row, col int, status string) authority.RemoteSeatState {
	return authority.RemoteSeatState{Row: intp(row), Col: intp(col), Status: status}
}

func heldSeat(row, col int, expires time.Time) authority.RemoteSeatState {
	s := remoteSeat(row, col, "Bloqueado")
	s.Expires = &expires
	return s
}

// fixture bundles a memstore, a fake authority and the components under
// test, all driven by a fixed clock.
type fixture struct {
	store *memstore.Store
	auth  *fakeAuthority
	clock Clock
	pub   *recordingPublisher

	projector *Projector
	holds     *HoldManager
	sales     *SaleCoordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		auth:  newFakeAuthority(),
		clock: fixedClock(baseTime),
		pub:   &recordingPublisher{},
	}
	log := quietLog()
	f.projector = NewProjector(f.auth, f.clock, log)
	f.holds = NewHoldManager(f.store, f.projector, f.auth, f.clock, log)
	f.sales = NewSaleCoordinator(f.store, f.projector, f.auth, f.pub, f.clock, log)
	return f
}

// seedEvent stores an active rows x cols event linked to remoteID and a
// FREE mirror for it.
func (f *fixture) seedEvent(remoteID int64, rows, cols int, price string) model.Event {
	rid := remoteID
	ev := f.store.PutEvent(model.Event{
		RemoteID:  &rid,
		Title:     "Concert",
		Date:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Time:      "20:00:00",
		SeatRows:  rows,
		SeatCols:  cols,
		UnitPrice: decimal.RequireFromString(price),
		IsActive:  true,
	})
	seats, _ := MirrorSeats(ev, nil)
	f.store.PutSeats(ev.ID, seats)
	return ev
}
