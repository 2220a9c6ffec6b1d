package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
)

func statuses(g model.Grid) map[model.Position]model.LiveStatus {
	out := make(map[model.Position]model.LiveStatus, len(g.Seats))
	for _, s := range g.Seats {
		out[model.Position{Row: s.Row, Col: s.Col}] = s.Status
	}
	return out
}

func TestProjectExampleGrid(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{
		remoteSeat(1, 1, "VENDIDO"),
		heldSeat(2, 2, baseTime.Add(time.Minute)),
	}

	grid, err := f.projector.Project(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, map[model.Position]model.LiveStatus{
		{Row: 1, Col: 1}: model.LiveSold,
		{Row: 1, Col: 2}: model.LiveFree,
		{Row: 2, Col: 1}: model.LiveFree,
		{Row: 2, Col: 2}: model.LiveHeldCurrent,
	}, statuses(grid))
	assert.False(t, grid.Degraded)
}

func TestOverlayShape(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		records    []authority.RemoteSeatState
	}{
		{"empty feed", 3, 4, nil},
		{"single seat", 1, 1, []authority.RemoteSeatState{remoteSeat(1, 1, "Vendido")}},
		{"out of range", 2, 3, []authority.RemoteSeatState{
			remoteSeat(0, 1, "Vendido"),
			remoteSeat(3, 1, "Vendido"),
			remoteSeat(1, 4, "Vendido"),
			remoteSeat(-1, -1, "Vendido"),
			{Status: "Vendido"},
		}},
		{"duplicates", 2, 2, []authority.RemoteSeatState{
			remoteSeat(1, 1, "Vendido"),
			remoteSeat(1, 1, "Ocupado"),
			remoteSeat(2, 2, "Bloqueado"),
		}},
		{"wide", 1, 50, []authority.RemoteSeatState{remoteSeat(1, 50, "Bloqueado")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := model.Event{ID: 1, SeatRows: tt.rows, SeatCols: tt.cols}
			grid, _ := Overlay(ev, tt.records, baseTime)

			require.Len(t, grid.Seats, tt.rows*tt.cols)
			seen := map[model.Position]bool{}
			for _, s := range grid.Seats {
				assert.True(t, ev.InBounds(s.Row, s.Col), "seat (%d,%d) out of range", s.Row, s.Col)
				p := model.Position{Row: s.Row, Col: s.Col}
				assert.False(t, seen[p], "duplicate seat (%d,%d)", s.Row, s.Col)
				seen[p] = true
			}
		})
	}
}

func TestOverlayStats(t *testing.T) {
	ev := model.Event{ID: 1, SeatRows: 2, SeatCols: 2}
	_, stats := Overlay(ev, []authority.RemoteSeatState{
		remoteSeat(3, 3, "Vendido"),
		remoteSeat(1, 1, "Vendido"),
		remoteSeat(1, 1, "Vendido"),
		remoteSeat(2, 1, "Reservado"),
	}, baseTime)
	assert.Equal(t, 1, stats.OutOfRange)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, []string{"Reservado"}, stats.Unknown)
}

func TestOverlayHoldExpiry(t *testing.T) {
	ev := model.Event{ID: 1, SeatRows: 1, SeatCols: 4}
	noExpiry := remoteSeat(1, 4, "BLOQUEADO")
	records := []authority.RemoteSeatState{
		heldSeat(1, 1, baseTime.Add(-time.Second)),
		heldSeat(1, 2, baseTime.Add(time.Second)),
		heldSeat(1, 3, baseTime),
		noExpiry,
	}

	first, _ := Overlay(ev, records, baseTime)
	assert.Equal(t, model.LiveHeldExpired, first.At(1, 1).Status)
	assert.Equal(t, model.LiveHeldCurrent, first.At(1, 2).Status)
	assert.Equal(t, model.LiveHeldExpired, first.At(1, 3).Status)
	assert.Equal(t, model.LiveHeldCurrent, first.At(1, 4).Status)
	require.NotNil(t, first.At(1, 2).ExpiresAt)

	second, _ := Overlay(ev, records, baseTime)
	assert.Equal(t, first, second)

	later, _ := Overlay(ev, records, baseTime.Add(time.Hour))
	assert.Equal(t, model.LiveHeldExpired, later.At(1, 2).Status)
}

func TestOverlayLastRecordWins(t *testing.T) {
	ev := model.Event{ID: 1, SeatRows: 1, SeatCols: 2}
	grid, _ := Overlay(ev, []authority.RemoteSeatState{
		remoteSeat(1, 1, "Vendido"),
		remoteSeat(1, 1, "Libre"),
		remoteSeat(1, 2, "Libre"),
		remoteSeat(1, 2, "Ocupado"),
	}, baseTime)
	assert.Equal(t, model.LiveFree, grid.At(1, 1).Status)
	assert.Equal(t, model.LiveSold, grid.At(1, 2).Status)
}

func TestOverlayUnknownStatus(t *testing.T) {
	ev := model.Event{ID: 1, SeatRows: 1, SeatCols: 1}
	grid, _ := Overlay(ev, []authority.RemoteSeatState{remoteSeat(1, 1, "Reservado")}, baseTime)
	seat := grid.At(1, 1)
	assert.Equal(t, model.LiveUnknown, seat.Status)
	assert.Equal(t, "Reservado", seat.Raw)
}

func TestProjectOne(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{remoteSeat(1, 1, "Vendido")}
	ctx := context.Background()

	seat, err := f.projector.ProjectOne(ctx, ev, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, seat)
	assert.Equal(t, model.LiveSold, seat.Status)

	seat, err = f.projector.ProjectOne(ctx, ev, 2, 1)
	require.NoError(t, err)
	require.NotNil(t, seat)
	assert.Equal(t, model.LiveFree, seat.Status)

	seat, err = f.projector.ProjectOne(ctx, ev, 3, 1)
	require.NoError(t, err)
	assert.Nil(t, seat)
}

func TestProjectAuthorityFailure(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 3, "100")
	f.auth.sparseErr = errors.New("connection refused")

	_, err := f.projector.Project(context.Background(), ev)
	assert.True(t, IsIntegration(err))

	eng := NewEngine(f.store, f.auth, Options{Clock: f.clock, Logger: quietLog()})
	grid, err := eng.LiveGrid(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.True(t, grid.Degraded)
	assert.Len(t, grid.Seats, 6)
	for _, s := range grid.Seats {
		assert.Equal(t, model.LiveFree, s.Status)
	}

	seat, err := eng.LiveSeat(context.Background(), ev.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.LiveFree, seat.Status)
}

func TestLiveGridUnknownEvent(t *testing.T) {
	f := newFixture(t)
	eng := NewEngine(f.store, f.auth, Options{Clock: f.clock, Logger: quietLog()})
	_, err := eng.LiveGrid(context.Background(), 99)
	assert.True(t, IsValidation(err))
}
