package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
)

func boolp(v bool) *bool { return &v }

func int64p(v int64) *int64 { return &v }

// assertNoSideEffects checks that no sale exists and every mirror seat of
// the event is still FREE.
func assertNoSideEffects(t *testing.T, f *fixture, eventID uint64) {
	t.Helper()
	ctx := context.Background()
	sales, err := f.store.ListSales(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, sales)
	seats, err := f.store.ListSeats(ctx, eventID)
	require.NoError(t, err)
	for _, s := range seats {
		assert.Equal(t, model.SeatFree, s.Status, "seat (%d,%d)", s.Row, s.Col)
	}
	assert.Empty(t, f.pub.sales)
}

func TestSellAccepted(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "150.50")
	until := baseTime.Add(3 * time.Minute)
	f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, until), heldSeat(1, 2, until)}
	saleDate := baseTime.Add(time.Second)
	f.auth.saleResp = &authority.SaleResponse{
		EventID:     10,
		SaleID:      int64p(555),
		SaleDate:    &saleDate,
		Accepted:    boolp(true),
		Description: "Venta realizada",
	}

	out, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{
		{Row: 1, Col: 1, Occupant: "Ana"},
		{Row: 1, Col: 2, Occupant: " Luis "},
	})
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.EqualValues(t, 555, out.RemoteSaleID)
	assert.True(t, decimal.RequireFromString("301").Equal(out.TotalPrice))

	require.Len(t, f.auth.saleCalls, 1)
	req := f.auth.saleCalls[0]
	assert.EqualValues(t, 10, req.EventID)
	assert.True(t, decimal.RequireFromString("301").Equal(req.Price))
	assert.Equal(t, []authority.SaleSeat{{Row: 1, Col: 1, Occupant: "Ana"}, {Row: 1, Col: 2, Occupant: "Luis"}}, req.Seats)

	sales, err := f.store.ListSales(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	sale := sales[0]
	assert.Equal(t, model.SaleStatusConfirmed, sale.Status)
	assert.Equal(t, 2, sale.SeatCount)
	assert.Len(t, sale.Seats, sale.SeatCount)
	assert.Equal(t, saleDate, sale.SaleDate)
	assert.Equal(t, "Venta realizada", sale.Description)

	seats, err := f.store.ListSeats(context.Background(), ev.ID)
	require.NoError(t, err)
	sold := map[model.Position]string{}
	for _, s := range seats {
		if s.Status == model.SeatSold {
			require.NotNil(t, s.Occupant)
			sold[model.Position{Row: s.Row, Col: s.Col}] = *s.Occupant
		}
	}
	assert.Equal(t, map[model.Position]string{{Row: 1, Col: 1}: "Ana", {Row: 1, Col: 2}: "Luis"}, sold)

	require.Len(t, f.pub.sales, 1)
	assert.Equal(t, sale.ID, f.pub.sales[0].ID)
}

func TestSellUsesAuthorityPrice(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 1, 1, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
	price := decimal.RequireFromString("80")
	f.auth.saleResp = &authority.SaleResponse{SaleID: int64p(1), Accepted: boolp(true), Price: &price}

	out, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}})
	require.NoError(t, err)
	assert.True(t, price.Equal(out.TotalPrice))
	assert.True(t, decimal.NewFromInt(100).Equal(f.auth.saleCalls[0].Price))

	sales, _ := f.store.ListSales(context.Background(), ev.ID)
	require.Len(t, sales, 1)
	assert.True(t, price.Equal(sales[0].TotalPrice))
}

func TestSellPartialListRejected(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{
		heldSeat(2, 2, baseTime.Add(time.Minute)),
		remoteSeat(1, 1, "VENDIDO"),
	}
	f.auth.saleResp = &authority.SaleResponse{SaleID: int64p(1), Accepted: boolp(true)}

	_, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{
		{Row: 2, Col: 2, Occupant: "Ana"},
		{Row: 1, Col: 1, Occupant: "Luis"},
	})
	assert.True(t, IsState(err))
	assert.Contains(t, err.Error(), "already sold")
	assert.Empty(t, f.auth.saleCalls)
	assertNoSideEffects(t, f, ev.ID)
}

func TestSellRequiresCurrentHold(t *testing.T) {
	tests := []struct {
		name  string
		state []authority.RemoteSeatState
	}{
		{"free", nil},
		{"expired", []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(-time.Second))}},
		{"unknown", []authority.RemoteSeatState{remoteSeat(1, 1, "PENDIENTE")}},
		{"sold", []authority.RemoteSeatState{remoteSeat(1, 1, "Ocupado")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ev := f.seedEvent(10, 2, 2, "100")
			f.auth.sparse[10] = tt.state

			_, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}})
			assert.True(t, IsState(err), "got %v", err)
			assert.Empty(t, f.auth.saleCalls)
			assertNoSideEffects(t, f, ev.ID)
		})
	}
}

func TestSellOutsideGrid(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	_, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{{Row: 3, Col: 1, Occupant: "Ana"}})
	assert.True(t, IsState(err))
}

func TestSellValidation(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	ctx := context.Background()

	tests := []struct {
		name  string
		id    uint64
		seats []model.SeatSaleRequest
	}{
		{"empty", ev.ID, nil},
		{"unknown event", 999, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}}},
		{"zero row", ev.ID, []model.SeatSaleRequest{{Row: 0, Col: 1, Occupant: "Ana"}}},
		{"zero col", ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 0, Occupant: "Ana"}}},
		{"blank occupant", ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "  "}}},
		{"duplicate", ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}, {Row: 1, Col: 1, Occupant: "Luis"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.Sell(ctx, tt.id, tt.seats)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Empty(t, f.auth.saleCalls)
}

func TestSellEventState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seats := []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}}

	inactive := f.seedEvent(10, 2, 2, "100")
	inactive.IsActive = false
	f.store.PutEvent(inactive)
	_, err := f.sales.Sell(ctx, inactive.ID, seats)
	assert.True(t, IsState(err))

	unlinked := f.store.PutEvent(model.Event{Title: "local", SeatRows: 2, SeatCols: 2, IsActive: true})
	_, err = f.sales.Sell(ctx, unlinked.ID, seats)
	assert.True(t, IsState(err))
}

func TestSellAuthorityOutcomes(t *testing.T) {
	seats := []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}}

	t.Run("refused", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
		f.auth.saleResp = &authority.SaleResponse{Accepted: boolp(false), Description: "hold expired"}

		out, err := f.sales.Sell(context.Background(), ev.ID, seats)
		require.NoError(t, err)
		assert.False(t, out.Accepted)
		assert.Equal(t, "hold expired", out.Description)
		assert.Nil(t, out.Sale)
		assertNoSideEffects(t, f, ev.ID)
	})

	t.Run("missing resultado", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
		f.auth.saleResp = &authority.SaleResponse{SaleID: int64p(3)}

		out, err := f.sales.Sell(context.Background(), ev.ID, seats)
		require.NoError(t, err)
		assert.False(t, out.Accepted)
		assertNoSideEffects(t, f, ev.ID)
	})

	t.Run("empty response", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
		f.auth.saleResp = nil

		_, err := f.sales.Sell(context.Background(), ev.ID, seats)
		assert.True(t, IsIntegration(err))
		assertNoSideEffects(t, f, ev.ID)
	})

	t.Run("transport error", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
		f.auth.saleErr = errors.New("timeout")

		_, err := f.sales.Sell(context.Background(), ev.ID, seats)
		assert.True(t, IsIntegration(err))
		assertNoSideEffects(t, f, ev.ID)
	})
}

func TestSellMirrorGap(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	f.store.PutSeats(ev.ID, nil)
	f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
	f.auth.saleResp = &authority.SaleResponse{SaleID: int64p(1), Accepted: boolp(true)}

	_, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}})
	assert.True(t, IsState(err))
	assert.Empty(t, f.auth.saleCalls)
	sales, _ := f.store.ListSales(context.Background(), ev.ID)
	assert.Empty(t, sales)
}

func TestSellPublishFailureKeepsSale(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 1, 1, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
	f.auth.saleResp = &authority.SaleResponse{SaleID: int64p(1), Accepted: boolp(true)}
	f.pub.err = errors.New("broker down")

	out, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}})
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	sales, _ := f.store.ListSales(context.Background(), ev.ID)
	assert.Len(t, sales, 1)
}

// stalledPublisher blocks until its context gives up.
type stalledPublisher struct {
	hadDeadline bool
}

func (p *stalledPublisher) PublishSaleConfirmed(ctx context.Context, _ model.Sale) error {
	_, p.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestSellPublishIsBounded(t *testing.T) {
	f := newFixture(t)
	pub := &stalledPublisher{}
	f.sales = NewSaleCoordinator(f.store, f.projector, f.auth, pub, f.clock, quietLog())
	f.sales.publishTimeout = 50 * time.Millisecond
	ev := f.seedEvent(10, 1, 1, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{heldSeat(1, 1, baseTime.Add(time.Minute))}
	f.auth.saleResp = &authority.SaleResponse{SaleID: int64p(1), Accepted: boolp(true)}

	start := time.Now()
	out, err := f.sales.Sell(context.Background(), ev.ID, []model.SeatSaleRequest{{Row: 1, Col: 1, Occupant: "Ana"}})
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.True(t, pub.hadDeadline)
	assert.Less(t, time.Since(start), 2*time.Second)

	sales, _ := f.store.ListSales(context.Background(), ev.ID)
	assert.Len(t, sales, 1)
}
