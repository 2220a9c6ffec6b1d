package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

// DefaultHoldDuration is how long an accepted hold is reported to last.
const DefaultHoldDuration = 5 * time.Minute

// HoldManager validates hold requests against the live projection and
// forwards them to the authority.  Holds are not stored locally.
type HoldManager struct {
	events    repository.Reader
	projector *Projector
	client    authority.Client
	clock     Clock
	holdFor   time.Duration
	log       logrus.FieldLogger
}

// HoldOption configures a HoldManager.
type HoldOption func(*HoldManager)

// WithHoldDuration overrides DefaultHoldDuration.
func WithHoldDuration(d time.Duration) HoldOption {
	return func(m *HoldManager) {
		if d > 0 {
			m.holdFor = d
		}
	}
}

// NewHoldManager returns a HoldManager that forwards holds to client and
// checks them against the local mirror read through events.
func NewHoldManager(events repository.Reader, projector *Projector, client authority.Client, clk Clock, log logrus.FieldLogger, opts ...HoldOption) *HoldManager {
	m := &HoldManager{
		events:    events,
		projector: projector,
		client:    client,
		clock:     clk,
		holdFor:   DefaultHoldDuration,
		log:       log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hold requests a hold on a single seat.
func (m *HoldManager) Hold(ctx context.Context, eventID uint64, row, col int) (model.HoldResult, error) {
	return m.HoldMany(ctx, eventID, []model.Position{{Row: row, Col: col}})
}

// HoldMany requests holds on every seat in seats.  Either every seat passes
// the local checks and the whole set is sent to the authority, or nothing
// is sent.
func (m *HoldManager) HoldMany(ctx context.Context, eventID uint64, seats []model.Position) (model.HoldResult, error) {
	const op = "hold"
	if len(seats) == 0 {
		return model.HoldResult{}, validationErr(op, "no seats requested")
	}
	seen := make(map[model.Position]bool, len(seats))
	for _, s := range seats {
		if s.Row < 1 || s.Col < 1 {
			return model.HoldResult{}, validationErr(op, "invalid seat (%d,%d)", s.Row, s.Col)
		}
		if seen[s] {
			return model.HoldResult{}, validationErr(op, "seat (%d,%d) requested twice", s.Row, s.Col)
		}
		seen[s] = true
	}

	ev, err := loadEvent(ctx, m.events, op, eventID)
	if err != nil {
		return model.HoldResult{}, err
	}
	for _, s := range seats {
		if !ev.InBounds(s.Row, s.Col) {
			return model.HoldResult{}, validationErr(op, "seat (%d,%d) outside %dx%d grid", s.Row, s.Col, ev.SeatRows, ev.SeatCols)
		}
	}
	if err := requireSellable(op, ev); err != nil {
		return model.HoldResult{}, err
	}

	grid, err := m.projector.Project(ctx, *ev)
	if err != nil {
		return model.HoldResult{}, err
	}
	for _, s := range seats {
		cell := grid.At(s.Row, s.Col)
		switch cell.Status {
		case model.LiveSold:
			return model.HoldResult{}, stateErr(op, "seat (%d,%d) already sold", s.Row, s.Col)
		case model.LiveHeldCurrent:
			return model.HoldResult{}, stateErr(op, "seat (%d,%d) already held", s.Row, s.Col)
		case model.LiveUnknown:
			return model.HoldResult{}, stateErr(op, "seat (%d,%d) has unrecognized status %q", s.Row, s.Col, cell.Raw)
		}
	}

	log := m.log.WithFields(logrus.Fields{"event_id": ev.ID, "remote_id": *ev.RemoteID, "seats": len(seats)})
	wire := make([]authority.Position, len(seats))
	for i, s := range seats {
		wire[i] = authority.Position{Row: s.Row, Col: s.Col}
	}
	ack, err := m.client.SubmitHold(ctx, *ev.RemoteID, wire)
	if err != nil {
		log.WithError(err).Error("hold submission failed")
		return model.HoldResult{}, integrationErr(op, err, "submit hold for event %d", ev.ID)
	}
	if ack == nil {
		log.Error("authority returned an empty hold response")
		return model.HoldResult{}, integrationErr(op, nil, "empty hold response for event %d", ev.ID)
	}

	res := model.HoldResult{EventID: ev.ID, Accepted: ack.Accepted, Description: ack.Description}
	if !ack.Accepted {
		log.WithField("description", ack.Description).Info("hold rejected by authority")
		return res, nil
	}
	expires := m.clock.Now().Add(m.holdFor)
	res.Confirmations = make([]model.HoldConfirmation, len(seats))
	for i, s := range seats {
		res.Confirmations[i] = model.HoldConfirmation{Row: s.Row, Col: s.Col, Status: "HELD", ExpiresAt: expires}
	}
	log.WithField("expires_at", expires).Info("hold accepted")
	return res, nil
}
