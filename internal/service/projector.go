package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
)

// Projector builds the live seat grid of an event from the authority's
// sparse feed of non-free seats.  Nothing is cached: whether a hold is
// current depends on the time of the call.
type Projector struct {
	client authority.Client
	clock  Clock
	log    logrus.FieldLogger
}

// NewProjector returns a Projector reading from client.
func NewProjector(client authority.Client, clk Clock, log logrus.FieldLogger) *Projector {
	return &Projector{client: client, clock: clk, log: log}
}

// OverlayStats counts the records Overlay did not apply as is.
type OverlayStats struct {
	OutOfRange int
	Duplicates int
	Unknown    []string
}

// Overlay merges records onto the all-FREE grid of ev as of now.  Records
// outside the grid are dropped; for a repeated position the last record
// wins, explicit free records included.
func Overlay(ev model.Event, records []authority.RemoteSeatState, now time.Time) (model.Grid, OverlayStats) {
	grid := model.NewFreeGrid(ev.ID, ev.SeatRows, ev.SeatCols)
	var stats OverlayStats
	seen := make(map[model.Position]bool, len(records))

	for _, rec := range records {
		if rec.Row == nil || rec.Col == nil {
			stats.OutOfRange++
			continue
		}
		cell := grid.At(*rec.Row, *rec.Col)
		if cell == nil {
			stats.OutOfRange++
			continue
		}
		pos := model.Position{Row: *rec.Row, Col: *rec.Col}
		if seen[pos] {
			stats.Duplicates++
		}
		seen[pos] = true

		*cell = classify(rec, now)
		if cell.Status == model.LiveUnknown {
			stats.Unknown = append(stats.Unknown, rec.Status)
		}
	}
	return grid, stats
}

func classify(rec authority.RemoteSeatState, now time.Time) model.LiveSeat {
	seat := model.LiveSeat{Row: *rec.Row, Col: *rec.Col, Holder: rec.Occupant}
	switch model.NormalizeRemoteStatus(rec.Status) {
	case model.RemoteFree:
		seat.Status = model.LiveFree
		seat.Holder = ""
	case model.RemoteSold:
		seat.Status = model.LiveSold
	case model.RemoteHeld:
		seat.ExpiresAt = rec.Expires
		if rec.Expires == nil || rec.Expires.After(now) {
			seat.Status = model.LiveHeldCurrent
		} else {
			seat.Status = model.LiveHeldExpired
		}
	default:
		seat.Status = model.LiveUnknown
		seat.Raw = rec.Status
	}
	return seat
}

// Project returns the live grid of ev.  An event that is not linked to the
// authority has nothing to overlay and projects all FREE.  Authority
// failures are returned as integration errors.
func (p *Projector) Project(ctx context.Context, ev model.Event) (model.Grid, error) {
	if ev.RemoteID == nil {
		return model.NewFreeGrid(ev.ID, ev.SeatRows, ev.SeatCols), nil
	}
	records, err := p.client.FetchSparseSeatState(ctx, *ev.RemoteID)
	if err != nil {
		return model.Grid{}, integrationErr("project", err, "fetch seat state for event %d", ev.ID)
	}
	grid, stats := Overlay(ev, records, p.clock.Now())
	p.report(ev, stats)
	return grid, nil
}

// ProjectOne returns the live state of a single seat, or nil when (row,
// col) is outside the grid.
func (p *Projector) ProjectOne(ctx context.Context, ev model.Event, row, col int) (*model.LiveSeat, error) {
	if !ev.InBounds(row, col) {
		return nil, nil
	}
	grid, err := p.Project(ctx, ev)
	if err != nil {
		return nil, err
	}
	seat := *grid.At(row, col)
	return &seat, nil
}

func (p *Projector) report(ev model.Event, stats OverlayStats) {
	log := p.log.WithFields(logrus.Fields{"event_id": ev.ID, "remote_id": *ev.RemoteID})
	if stats.OutOfRange > 0 {
		log.WithField("dropped", stats.OutOfRange).Warn("seat state records outside grid dropped")
	}
	if stats.Duplicates > 0 {
		log.WithField("duplicates", stats.Duplicates).Warn("duplicate seat state records, last one kept")
	}
	for _, raw := range stats.Unknown {
		log.WithField("status", raw).Warn("unrecognized seat status")
	}
}
