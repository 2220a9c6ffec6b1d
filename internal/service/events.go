package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

// loadEvent fetches an event and turns a missing row into a validation
// error that still wraps repository.ErrEventNotFound.
func loadEvent(ctx context.Context, r repository.Reader, op string, id uint64) (*model.Event, error) {
	ev, err := r.GetEvent(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf("event %d not found", id), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: load event %d: %w", op, id, err)
	}
	return ev, nil
}

// requireSellable rejects events that cannot be traded with the authority.
func requireSellable(op string, ev *model.Event) error {
	if !ev.IsActive {
		return stateErr(op, "event %d is inactive", ev.ID)
	}
	if ev.RemoteID == nil {
		return stateErr(op, "event %d is not linked to the authority", ev.ID)
	}
	return nil
}
