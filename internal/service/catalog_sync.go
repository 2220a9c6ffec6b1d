package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
)

const (
	catalogLockKey     = "lock:catalog-sync"
	defaultSyncLockTTL = 10 * time.Minute
)

// CatalogSync reconciles the local event table with the authority's
// catalog and regenerates each event's seat mirror.  Runs never overlap:
// an in-process mutex guards this instance and the Locker guards the
// fleet.
type CatalogSync struct {
	store   repository.Store
	client  authority.Client
	mirror  *SeatMirror
	locker  Locker
	clock   Clock
	loc     *time.Location
	lockTTL time.Duration
	log     logrus.FieldLogger

	running sync.Mutex
}

// SyncOption configures a CatalogSync.
type SyncOption func(*CatalogSync)

// WithLocker sets the cross-instance lock.  Without one only the local
// mutex applies.
func WithLocker(l Locker) SyncOption {
	return func(s *CatalogSync) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithLocation sets the zone used to derive local event dates and times.
func WithLocation(loc *time.Location) SyncOption {
	return func(s *CatalogSync) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLockTTL bounds how long a crashed instance can keep others out.
func WithLockTTL(d time.Duration) SyncOption {
	return func(s *CatalogSync) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// NewCatalogSync wires a reconciliation pass.  Without WithLocker only the
// in-process lock guards against overlapping passes.
func NewCatalogSync(store repository.Store, client authority.Client, mirror *SeatMirror, clk Clock, log logrus.FieldLogger, opts ...SyncOption) *CatalogSync {
	s := &CatalogSync{
		store:   store,
		client:  client,
		mirror:  mirror,
		locker:  localLocker{},
		clock:   clk,
		loc:     time.UTC,
		lockTTL: defaultSyncLockTTL,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncAll runs one reconciliation pass.  It returns ErrSyncInProgress when
// another pass holds the lock.  A failure to fetch the catalog, or an
// empty catalog, leaves local state untouched and is reported on the
// SyncReport rather than as an error.
func (s *CatalogSync) SyncAll(ctx context.Context) (model.SyncReport, error) {
	var report model.SyncReport
	if !s.running.TryLock() {
		return report, ErrSyncInProgress
	}
	defer s.running.Unlock()

	release, ok, err := s.locker.TryLock(ctx, catalogLockKey, s.lockTTL)
	switch {
	case err != nil:
		s.log.WithError(err).Warn("sync lock unavailable, continuing with local lock only")
	case !ok:
		return report, ErrSyncInProgress
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.WithError(err).Warn("release sync lock")
			}
		}()
	}

	remote, err := s.client.FetchCatalog(ctx)
	if err != nil {
		s.log.WithError(err).Error("fetch catalog failed, local events untouched")
		report.CatalogError = err.Error()
		return report, nil
	}
	report.Fetched = len(remote)
	if len(remote) == 0 {
		s.log.Warn("authority returned an empty catalog, local events untouched")
		report.CatalogError = "empty catalog"
		return report, nil
	}

	seen := make(map[int64]bool, len(remote))
	for _, re := range remote {
		if re.ID == nil {
			s.log.WithField("title", re.Title).Warn("catalog entry without id skipped")
			report.Skipped++
			continue
		}
		seen[*re.ID] = true
		if err := s.syncEvent(ctx, re, &report); err != nil {
			report.Skipped++
			s.log.WithField("remote_id", *re.ID).WithError(err).Error("catalog entry skipped")
		}
	}

	if err := s.deactivateMissing(ctx, seen, &report); err != nil {
		return report, err
	}
	s.log.WithFields(logrus.Fields{
		"fetched":     report.Fetched,
		"created":     report.Created,
		"updated":     report.Updated,
		"skipped":     report.Skipped,
		"deactivated": report.Deactivated,
	}).Info("catalog sync finished")
	return report, nil
}

func (s *CatalogSync) syncEvent(ctx context.Context, re authority.RemoteEvent, report *model.SyncReport) error {
	remoteID := *re.ID
	log := s.log.WithField("remote_id", remoteID)

	if re.SeatRows == nil || re.SeatCols == nil || *re.SeatRows <= 0 || *re.SeatCols <= 0 {
		return fmt.Errorf("invalid seat grid %s x %s", intOrNil(re.SeatRows), intOrNil(re.SeatCols))
	}
	price := decimal.Zero
	switch {
	case re.UnitPrice == nil:
		log.Warn("catalog entry without price, using 0")
	case re.UnitPrice.IsNegative():
		return fmt.Errorf("negative price %s", re.UnitPrice.String())
	default:
		price = *re.UnitPrice
	}
	date, clock := s.localSchedule(re.Date)
	if re.Date == nil {
		log.Warn("catalog entry without date, using today at midnight")
	}

	current, err := s.store.GetEventByRemoteID(ctx, remoteID)
	var ev model.Event
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		ev = model.Event{RemoteID: &remoteID}
	case err != nil:
		return fmt.Errorf("load local event: %w", err)
	default:
		ev = *current
	}

	next := ev
	next.Title = strings.TrimSpace(re.Title)
	next.Description = re.Description
	if next.Description == "" {
		next.Description = re.Summary
	}
	next.Date = date
	next.Time = clock
	next.SeatRows = *re.SeatRows
	next.SeatCols = *re.SeatCols
	next.TotalSeats = next.SeatRows * next.SeatCols
	next.UnitPrice = price
	next.IsActive = true

	created := ev.ID == 0
	if !created && sameEvent(ev, next) {
		report.Unchanged++
	} else {
		err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return tx.SaveEvent(ctx, &next)
		})
		if err != nil {
			return fmt.Errorf("save event: %w", err)
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	n, err := s.mirror.SyncSeats(ctx, next, remoteID)
	if err != nil {
		report.MirrorFails++
		log.WithField("event_id", next.ID).WithError(err).Error("seat mirror sync failed")
		return nil
	}
	report.SeatsSynced += n
	return nil
}

func (s *CatalogSync) deactivateMissing(ctx context.Context, seen map[int64]bool, report *model.SyncReport) error {
	active, err := s.store.ListActiveRemoteEvents(ctx)
	if err != nil {
		return fmt.Errorf("list active events: %w", err)
	}
	for _, ev := range active {
		if seen[*ev.RemoteID] {
			continue
		}
		err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return tx.SetEventActive(ctx, ev.ID, false)
		})
		if err != nil {
			s.log.WithField("event_id", ev.ID).WithError(err).Error("deactivate event")
			continue
		}
		report.Deactivated++
		s.log.WithFields(logrus.Fields{"event_id": ev.ID, "remote_id": *ev.RemoteID}).Info("event gone from catalog, deactivated")
	}
	return nil
}

// localSchedule maps the remote instant onto a local calendar date and time
// of day.  A missing instant means today at midnight.
func (s *CatalogSync) localSchedule(at *time.Time) (time.Time, string) {
	t := s.clock.Now().In(s.loc)
	clock := "00:00:00"
	if at != nil {
		t = at.In(s.loc)
		clock = t.Format("15:04:05")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc), clock
}

func sameEvent(a, b model.Event) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		a.Date.Format(time.DateOnly) == b.Date.Format(time.DateOnly) &&
		a.Time == b.Time &&
		a.SeatRows == b.SeatRows &&
		a.SeatCols == b.SeatCols &&
		a.TotalSeats == b.TotalSeats &&
		a.UnitPrice.Equal(b.UnitPrice) &&
		a.IsActive == b.IsActive
}

func intOrNil(p *int) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprint(*p)
}
