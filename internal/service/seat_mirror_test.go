package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
)

func TestMirrorSeats(t *testing.T) {
	ev := model.Event{ID: 4, SeatRows: 2, SeatCols: 2}
	seats, dropped := MirrorSeats(ev, []authority.RemoteSeat{
		{Row: intp(1), Col: intp(1), Status: "BLOQUEADO"},
		{Row: intp(1), Col: intp(2), Status: "vendido", Occupant: "Ana"},
		{Row: intp(2), Col: intp(1), Status: "Ocupado"},
		{Row: intp(2), Col: intp(1), Status: "libre"},
		{Row: intp(2), Col: intp(2), Status: "???"},
		{Row: intp(3), Col: intp(1), Status: "Vendido"},
		{Row: nil, Col: intp(1), Status: "Vendido"},
	})
	assert.Equal(t, 2, dropped)
	require.Len(t, seats, 4)

	want := []model.SeatStatus{model.SeatHeld, model.SeatSold, model.SeatFree, model.SeatFree}
	for i, s := range seats {
		assert.Equal(t, ev.ID, s.EventID)
		assert.Equal(t, want[i], s.Status, "seat (%d,%d)", s.Row, s.Col)
	}
	require.NotNil(t, seats[1].Occupant)
	assert.Equal(t, "Ana", *seats[1].Occupant)
	assert.Nil(t, seats[0].Occupant)
}

func TestSeatMirrorTransportErrorKeepsMirror(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 1, 2, "10")
	mirror := NewSeatMirror(f.store, f.auth, quietLog())
	ctx := context.Background()

	f.auth.snapshots[10] = []authority.RemoteSeat{{Row: intp(1), Col: intp(2), Status: "Vendido"}}
	n, err := mirror.SyncSeats(ctx, ev, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f.auth.snapshotErr[10] = errors.New("reset by peer")
	_, err = mirror.SyncSeats(ctx, ev, 10)
	assert.True(t, IsIntegration(err))

	seats, _ := f.store.ListSeats(ctx, ev.ID)
	require.Len(t, seats, 2)
	assert.Equal(t, model.SeatSold, seats[1].Status)
}

func TestEngineSyncEventSeats(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 1, 3, "10")
	local := f.store.PutEvent(model.Event{Title: "local", SeatRows: 1, SeatCols: 1, IsActive: true})
	eng := NewEngine(f.store, f.auth, Options{Clock: f.clock, Logger: quietLog()})

	n, err := eng.SyncEventSeats(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = eng.SyncEventSeats(context.Background(), local.ID)
	assert.True(t, IsState(err))
}
