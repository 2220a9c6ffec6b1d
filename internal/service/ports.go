// Package service contains the seat reservation and catalog reconciliation
// engine: the live seat projector, the hold and sale protocols against the
// authority, and the jobs that keep the local event and seat tables in
// line with the authority's catalog.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// Clock supplies the current time.  Every expiry comparison goes through it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SalePublisher announces committed sales.  Failures are logged by the
// caller and never undo the sale.
type SalePublisher interface {
	PublishSaleConfirmed(ctx context.Context, sale model.Sale) error
}

// Locker provides a mutual-exclusion lease shared between instances.  ok
// is false when somebody else holds key.  release must be called with the
// returned function once the critical section ends.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type noopPublisher struct{}

func (noopPublisher) PublishSaleConfirmed(context.Context, model.Sale) error { return nil }

type localLocker struct{}

func (localLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
