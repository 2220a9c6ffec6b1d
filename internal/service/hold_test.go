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

func TestHoldAccepted(t *testing.T) {
	tests := []struct {
		name  string
		state []authority.RemoteSeatState
	}{
		{"free", nil},
		{"expired hold", []authority.RemoteSeatState{heldSeat(1, 2, baseTime.Add(-time.Minute))}},
		{"explicit free", []authority.RemoteSeatState{remoteSeat(1, 2, "LIBRE")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ev := f.seedEvent(10, 2, 2, "100")
			f.auth.sparse[10] = tt.state

			res, err := f.holds.Hold(context.Background(), ev.ID, 1, 2)
			require.NoError(t, err)
			assert.True(t, res.Accepted)
			require.Len(t, res.Confirmations, 1)
			c := res.Confirmations[0]
			assert.Equal(t, 1, c.Row)
			assert.Equal(t, 2, c.Col)
			assert.Equal(t, "HELD", c.Status)
			assert.Equal(t, baseTime.Add(DefaultHoldDuration), c.ExpiresAt)

			require.Len(t, f.auth.holdCalls, 1)
			assert.Equal(t, []authority.Position{{Row: 1, Col: 2}}, f.auth.holdCalls[0])
		})
	}
}

func TestHoldCustomDuration(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 1, 1, "100")
	m := NewHoldManager(f.store, f.projector, f.auth, f.clock, quietLog(), WithHoldDuration(90*time.Second))

	res, err := m.Hold(context.Background(), ev.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(90*time.Second), res.Confirmations[0].ExpiresAt)
}

func TestHoldRejectedLocally(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	f.auth.sparse[10] = []authority.RemoteSeatState{
		remoteSeat(1, 1, "VENDIDO"),
		heldSeat(2, 2, baseTime.Add(time.Minute)),
		remoteSeat(2, 1, "EN REVISION"),
	}
	ctx := context.Background()

	_, err := f.holds.Hold(ctx, ev.ID, 2, 2)
	assert.True(t, IsState(err), "held seat: %v", err)
	assert.Contains(t, err.Error(), "already held")

	_, err = f.holds.Hold(ctx, ev.ID, 1, 1)
	assert.True(t, IsState(err), "sold seat: %v", err)
	assert.Contains(t, err.Error(), "already sold")

	_, err = f.holds.Hold(ctx, ev.ID, 2, 1)
	assert.True(t, IsState(err), "unknown status: %v", err)

	_, err = f.holds.HoldMany(ctx, ev.ID, []model.Position{{Row: 1, Col: 2}, {Row: 1, Col: 1}})
	assert.True(t, IsState(err))

	assert.Empty(t, f.auth.holdCalls)
}

func TestHoldValidation(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 2, 2, "100")
	ctx := context.Background()

	tests := []struct {
		name  string
		seats []model.Position
	}{
		{"empty", nil},
		{"zero row", []model.Position{{Row: 0, Col: 1}}},
		{"negative col", []model.Position{{Row: 1, Col: -1}}},
		{"row beyond grid", []model.Position{{Row: 3, Col: 1}}},
		{"col beyond grid", []model.Position{{Row: 1, Col: 3}}},
		{"duplicate", []model.Position{{Row: 1, Col: 1}, {Row: 1, Col: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.holds.HoldMany(ctx, ev.ID, tt.seats)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}

	_, err := f.holds.Hold(ctx, 999, 1, 1)
	assert.True(t, IsValidation(err))
	assert.Empty(t, f.auth.holdCalls)
}

func TestHoldEventState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := f.seedEvent(10, 2, 2, "100")
	inactive.IsActive = false
	f.store.PutEvent(inactive)
	_, err := f.holds.Hold(ctx, inactive.ID, 1, 1)
	assert.True(t, IsState(err))

	unlinked := f.store.PutEvent(model.Event{Title: "local", SeatRows: 2, SeatCols: 2, IsActive: true})
	_, err = f.holds.Hold(ctx, unlinked.ID, 1, 1)
	assert.True(t, IsState(err))

	assert.Empty(t, f.auth.holdCalls)
}

func TestHoldAuthorityOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("refused", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.holdAck = &authority.HoldAck{Accepted: false, Description: "seat taken"}

		res, err := f.holds.Hold(ctx, ev.ID, 1, 1)
		require.NoError(t, err)
		assert.False(t, res.Accepted)
		assert.Equal(t, "seat taken", res.Description)
		assert.Empty(t, res.Confirmations)
	})

	t.Run("transport error", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.holdErr = context.DeadlineExceeded

		_, err := f.holds.Hold(ctx, ev.ID, 1, 1)
		assert.True(t, IsIntegration(err))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("empty response", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.holdAck = nil

		_, err := f.holds.Hold(ctx, ev.ID, 1, 1)
		assert.True(t, IsIntegration(err))
	})

	t.Run("seat state unavailable", func(t *testing.T) {
		f := newFixture(t)
		ev := f.seedEvent(10, 2, 2, "100")
		f.auth.sparseErr = errors.New("down")

		_, err := f.holds.Hold(ctx, ev.ID, 1, 1)
		assert.True(t, IsIntegration(err))
		assert.Empty(t, f.auth.holdCalls)
	})
}

func TestHoldDoesNotTouchMirror(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(10, 1, 2, "100")
	ctx := context.Background()
	before, err := f.store.ListSeats(ctx, ev.ID)
	require.NoError(t, err)

	_, err = f.holds.HoldMany(ctx, ev.ID, []model.Position{{Row: 1, Col: 1}, {Row: 1, Col: 2}})
	require.NoError(t, err)

	after, err := f.store.ListSeats(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
