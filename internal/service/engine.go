package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

// Options carries the explicit configuration of an Engine.  Zero values
// fall back to the defaults of each component.
type Options struct {
	Clock        Clock
	HoldDuration time.Duration
	Location     *time.Location
	SyncLockTTL  time.Duration
	Locker       Locker
	Publisher    SalePublisher
	Logger       logrus.FieldLogger
}

// Engine is the entry point used by the HTTP layer, the scheduler and the
// message consumer.
type Engine struct {
	store     repository.Store
	projector *Projector
	holds     *HoldManager
	sales     *SaleCoordinator
	mirror    *SeatMirror
	catalog   *CatalogSync
	log       logrus.FieldLogger
}

// NewEngine wires every component around store and client.
func NewEngine(store repository.Store, client authority.Client, opts Options) *Engine {
	clk := opts.Clock
	if clk == nil {
		clk = SystemClock{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	projector := NewProjector(client, clk, log.WithField("component", "projector"))
	mirror := NewSeatMirror(store, client, log.WithField("component", "seat_mirror"))
	return &Engine{
		store:     store,
		projector: projector,
		holds: NewHoldManager(store, projector, client, clk, log.WithField("component", "holds"),
			WithHoldDuration(opts.HoldDuration)),
		sales:  NewSaleCoordinator(store, projector, client, opts.Publisher, clk, log.WithField("component", "sales")),
		mirror: mirror,
		catalog: NewCatalogSync(store, client, mirror, clk, log.WithField("component", "catalog_sync"),
			WithLocker(opts.Locker), WithLocation(opts.Location), WithLockTTL(opts.SyncLockTTL)),
		log: log,
	}
}

// LiveGrid returns the live grid of an event.  When the authority cannot be
// reached the all-FREE grid is returned with Degraded set.
func (e *Engine) LiveGrid(ctx context.Context, eventID uint64) (model.Grid, error) {
	ev, err := loadEvent(ctx, e.store, "live grid", eventID)
	if err != nil {
		return model.Grid{}, err
	}
	grid, err := e.projector.Project(ctx, *ev)
	if err != nil {
		e.log.WithField("event_id", eventID).WithError(err).Warn("serving default grid")
		grid = model.NewFreeGrid(ev.ID, ev.SeatRows, ev.SeatCols)
		grid.Degraded = true
	}
	return grid, nil
}

// LiveSeat returns one seat of the live grid, nil when the position is
// outside it.  On authority failure the seat is reported FREE.
func (e *Engine) LiveSeat(ctx context.Context, eventID uint64, row, col int) (*model.LiveSeat, error) {
	ev, err := loadEvent(ctx, e.store, "live seat", eventID)
	if err != nil {
		return nil, err
	}
	seat, err := e.projector.ProjectOne(ctx, *ev, row, col)
	if err != nil {
		e.log.WithFields(logrus.Fields{"event_id": eventID, "row": row, "col": col}).WithError(err).Warn("serving default seat")
		return &model.LiveSeat{Row: row, Col: col, Status: model.LiveFree}, nil
	}
	return seat, nil
}

func (e *Engine) Hold(ctx context.Context, eventID uint64, row, col int) (model.HoldResult, error) {
	return e.holds.Hold(ctx, eventID, row, col)
}

func (e *Engine) HoldMany(ctx context.Context, eventID uint64, seats []model.Position) (model.HoldResult, error) {
	return e.holds.HoldMany(ctx, eventID, seats)
}

func (e *Engine) Sell(ctx context.Context, eventID uint64, seats []model.SeatSaleRequest) (model.SaleOutcome, error) {
	return e.sales.Sell(ctx, eventID, seats)
}

// RunCatalogSync runs one catalog reconciliation pass.
func (e *Engine) RunCatalogSync(ctx context.Context) (model.SyncReport, error) {
	return e.catalog.SyncAll(ctx)
}

// SyncEventSeats regenerates the mirror of a single local event.
func (e *Engine) SyncEventSeats(ctx context.Context, eventID uint64) (int, error) {
	ev, err := loadEvent(ctx, e.store, "sync seats", eventID)
	if err != nil {
		return 0, err
	}
	if ev.RemoteID == nil {
		return 0, stateErr("sync seats", "event %d is not linked to the authority", ev.ID)
	}
	return e.mirror.SyncSeats(ctx, *ev, *ev.RemoteID)
}

func (e *Engine) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	return loadEvent(ctx, e.store, "get event", eventID)
}

func (e *Engine) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := e.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListSales returns the confirmed sales of an event.
func (e *Engine) ListSales(ctx context.Context, eventID uint64) ([]model.Sale, error) {
	if _, err := loadEvent(ctx, e.store, "list sales", eventID); err != nil {
		return nil, err
	}
	sales, err := e.store.ListSales(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}
