package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

// errSaleRejected rolls back the sale transaction when the authority says
// no.  It never leaves Sell.
var errSaleRejected = errors.New("sale rejected by authority")

// DefaultPublishTimeout bounds the sale confirmation publish that runs
// before Sell returns.
const DefaultPublishTimeout = 5 * time.Second

// SaleCoordinator re-validates held seats and commits a sale only after
// the authority confirmed it.
type SaleCoordinator struct {
	store          repository.Store
	projector      *Projector
	client         authority.Client
	publisher      SalePublisher
	publishTimeout time.Duration
	clock          Clock
	log            logrus.FieldLogger
}

// NewSaleCoordinator returns a SaleCoordinator.  A nil publisher disables
// sale notifications.
func NewSaleCoordinator(store repository.Store, projector *Projector, client authority.Client, pub SalePublisher, clk Clock, log logrus.FieldLogger) *SaleCoordinator {
	if pub == nil {
		pub = noopPublisher{}
	}
	return &SaleCoordinator{
		store:          store,
		projector:      projector,
		client:         client,
		publisher:      pub,
		publishTimeout: DefaultPublishTimeout,
		clock:          clk,
		log:            log,
	}
}

// Sell buys every seat in seats or none of them.  Each seat must be held
// and still current according to the authority.  A refusal by the
// authority is returned as an outcome with Accepted=false.
func (c *SaleCoordinator) Sell(ctx context.Context, eventID uint64, seats []model.SeatSaleRequest) (model.SaleOutcome, error) {
	const op = "sell"
	if len(seats) == 0 {
		return model.SaleOutcome{}, validationErr(op, "no seats requested")
	}
	ev, err := loadEvent(ctx, c.store, op, eventID)
	if err != nil {
		return model.SaleOutcome{}, err
	}
	if err := requireSellable(op, ev); err != nil {
		return model.SaleOutcome{}, err
	}

	seen := make(map[model.Position]bool, len(seats))
	for _, s := range seats {
		if s.Row < 1 || s.Col < 1 {
			return model.SaleOutcome{}, validationErr(op, "invalid seat (%d,%d)", s.Row, s.Col)
		}
		if strings.TrimSpace(s.Occupant) == "" {
			return model.SaleOutcome{}, validationErr(op, "seat (%d,%d) has no occupant", s.Row, s.Col)
		}
		p := model.Position{Row: s.Row, Col: s.Col}
		if seen[p] {
			return model.SaleOutcome{}, validationErr(op, "seat (%d,%d) requested twice", s.Row, s.Col)
		}
		seen[p] = true
	}

	grid, err := c.projector.Project(ctx, *ev)
	if err != nil {
		return model.SaleOutcome{}, err
	}
	for _, s := range seats {
		cell := grid.At(s.Row, s.Col)
		switch {
		case cell == nil:
			return model.SaleOutcome{}, stateErr(op, "seat (%d,%d) does not exist", s.Row, s.Col)
		case cell.Status == model.LiveSold:
			return model.SaleOutcome{}, stateErr(op, "seat (%d,%d) already sold", s.Row, s.Col)
		case cell.Status != model.LiveHeldCurrent:
			return model.SaleOutcome{}, stateErr(op, "seat (%d,%d) is not held (status %s)", s.Row, s.Col, cell.Status)
		}
	}

	remoteID := *ev.RemoteID
	proposed := ev.UnitPrice.Mul(decimal.NewFromInt(int64(len(seats))))
	now := c.clock.Now()
	log := c.log.WithFields(logrus.Fields{"event_id": ev.ID, "remote_id": remoteID, "seats": len(seats)})

	var outcome model.SaleOutcome
	var sale *model.Sale
	err = c.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		covered := make([]model.SaleSeat, 0, len(seats))
		for _, s := range seats {
			seat, err := tx.LockSeat(ctx, ev.ID, s.Row, s.Col)
			if errors.Is(err, repository.ErrSeatNotFound) {
				return stateErr(op, "seat (%d,%d) missing from local mirror", s.Row, s.Col)
			}
			if err != nil {
				return fmt.Errorf("%s: lock seat (%d,%d): %w", op, s.Row, s.Col, err)
			}
			covered = append(covered, model.SaleSeat{SeatID: seat.ID, Row: s.Row, Col: s.Col, Occupant: strings.TrimSpace(s.Occupant)})
		}

		req := authority.SaleRequest{EventID: remoteID, Date: now.UTC(), Price: proposed}
		for _, s := range covered {
			req.Seats = append(req.Seats, authority.SaleSeat{Row: s.Row, Col: s.Col, Occupant: s.Occupant})
		}
		resp, err := c.client.SubmitSale(ctx, req)
		if err != nil {
			log.WithError(err).Error("sale submission failed")
			return integrationErr(op, err, "submit sale for event %d", ev.ID)
		}
		if resp == nil {
			log.Error("authority returned an empty sale response")
			return integrationErr(op, nil, "empty sale response for event %d", ev.ID)
		}
		if !resp.OK() {
			outcome = model.SaleOutcome{Accepted: false, Description: resp.Description, TotalPrice: proposed}
			return errSaleRejected
		}

		s := &model.Sale{
			EventID:     ev.ID,
			SaleDate:    now,
			Status:      model.SaleStatusConfirmed,
			Description: resp.Description,
			TotalPrice:  proposed,
			SeatCount:   len(covered),
			Seats:       covered,
		}
		if resp.SaleID != nil {
			s.RemoteSaleID = *resp.SaleID
		} else {
			log.Warn("authority confirmed sale without an id")
		}
		if resp.Price != nil {
			s.TotalPrice = *resp.Price
		}
		if resp.SaleDate != nil {
			s.SaleDate = *resp.SaleDate
		}
		sale = s
		if err := tx.InsertSale(ctx, s); err != nil {
			return fmt.Errorf("%s: insert sale: %w", op, err)
		}
		if err := tx.MarkSeatsSold(ctx, ev.ID, covered); err != nil {
			return fmt.Errorf("%s: mark seats sold: %w", op, err)
		}
		return nil
	})

	switch {
	case errors.Is(err, errSaleRejected):
		log.WithField("description", outcome.Description).Info("sale rejected by authority")
		return outcome, nil
	case err != nil:
		if sale != nil {
			log.WithError(err).WithField("remote_sale_id", sale.RemoteSaleID).Error("authority confirmed sale but local commit failed")
		}
		return model.SaleOutcome{}, err
	}

	date := sale.SaleDate
	outcome = model.SaleOutcome{
		Accepted:     true,
		RemoteSaleID: sale.RemoteSaleID,
		Description:  sale.Description,
		TotalPrice:   sale.TotalPrice,
		SaleDate:     &date,
		Sale:         sale,
	}
	log.WithFields(logrus.Fields{"sale_id": sale.ID, "remote_sale_id": sale.RemoteSaleID}).Info("sale committed")

	// the sale is committed; a disconnected client must not cancel the
	// notification, but a stuck broker must not hold the response either
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.publishTimeout)
	defer cancel()
	if err := c.publisher.PublishSaleConfirmed(pubCtx, *sale); err != nil {
		log.WithError(err).Warn("publish sale confirmation failed")
	}
	return outcome, nil
}
