package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

// SeatMirror regenerates the local seat table of an event from the
// authority's seat snapshot.  It does not track holds beyond what the
// snapshot says at the moment of the sync.
type SeatMirror struct {
	store  repository.Store
	client authority.Client
	log    logrus.FieldLogger
}

// NewSeatMirror returns a SeatMirror that rebuilds seat rows in store from
// snapshots fetched through client.
func NewSeatMirror(store repository.Store, client authority.Client, log logrus.FieldLogger) *SeatMirror {
	return &SeatMirror{store: store, client: client, log: log}
}

// MirrorSeats builds the full set of mirror rows for ev: one row per grid
// cell, FREE unless the snapshot says otherwise.  Entries outside the grid
// are dropped and the last entry for a position wins.  dropped counts the
// entries that were ignored.
func MirrorSeats(ev model.Event, snapshot []authority.RemoteSeat) (seats []model.Seat, dropped int) {
	if ev.SeatRows <= 0 || ev.SeatCols <= 0 {
		return nil, len(snapshot)
	}
	seats = make([]model.Seat, 0, ev.SeatRows*ev.SeatCols)
	for r := 1; r <= ev.SeatRows; r++ {
		for c := 1; c <= ev.SeatCols; c++ {
			seats = append(seats, model.Seat{EventID: ev.ID, Row: r, Col: c, Status: model.SeatFree})
		}
	}
	for _, rec := range snapshot {
		if rec.Row == nil || rec.Col == nil || !ev.InBounds(*rec.Row, *rec.Col) {
			dropped++
			continue
		}
		seat := &seats[(*rec.Row-1)*ev.SeatCols+(*rec.Col-1)]
		seat.Status = model.NormalizeRemoteStatus(rec.Status).MirrorStatus()
		seat.Occupant = nil
		if rec.Occupant != "" {
			o := rec.Occupant
			seat.Occupant = &o
		}
	}
	return seats, dropped
}

// SyncSeats replaces the mirror of ev with the authority's current
// snapshot and returns the number of rows written.  A malformed snapshot
// counts as empty; a transport failure leaves the mirror untouched.
func (m *SeatMirror) SyncSeats(ctx context.Context, ev model.Event, remoteID int64) (int, error) {
	log := m.log.WithFields(logrus.Fields{"event_id": ev.ID, "remote_id": remoteID})

	snapshot, err := m.client.FetchSeatSnapshot(ctx, remoteID)
	switch {
	case errors.Is(err, authority.ErrMalformedPayload):
		log.WithError(err).Warn("malformed seat snapshot, regenerating as empty")
		snapshot = nil
	case err != nil:
		return 0, integrationErr("sync seats", err, "fetch seat snapshot for event %d", ev.ID)
	}

	seats, dropped := MirrorSeats(ev, snapshot)
	if dropped > 0 {
		log.WithField("dropped", dropped).Warn("seat snapshot entries outside grid dropped")
	}
	err = m.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.ReplaceSeats(ctx, ev.ID, seats)
	})
	if err != nil {
		return 0, fmt.Errorf("sync seats: replace mirror of event %d: %w", ev.ID, err)
	}
	log.WithField("seats", len(seats)).Debug("seat mirror regenerated")
	return len(seats), nil
}
