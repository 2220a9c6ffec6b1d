// Package scheduler runs the periodic catalog sync.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/service"
)

// Syncer runs one catalog reconciliation pass.
type Syncer interface {
	RunCatalogSync(ctx context.Context) (model.SyncReport, error)
}

// Scheduler runs a catalog sync on startup and then every interval.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	log      logrus.FieldLogger
}

// NewScheduler returns a Scheduler; nothing runs until Start.
func NewScheduler(syncer Syncer, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{syncer: syncer, interval: interval, log: log}
}

// Start blocks until ctx is done.  A non-positive interval runs the startup
// pass only.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.WithField("interval", s.interval.String()).Info("catalog sync scheduler started")
	s.runOnce(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("catalog sync scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.syncer.RunCatalogSync(ctx)
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		s.log.Debug("catalog sync skipped: already running")
		return
	case err != nil:
		s.log.WithError(err).Error("catalog sync failed")
		return
	}
	fields := logrus.Fields{
		"fetched":      report.Fetched,
		"created":      report.Created,
		"updated":      report.Updated,
		"unchanged":    report.Unchanged,
		"skipped":      report.Skipped,
		"deactivated":  report.Deactivated,
		"mirror_fails": report.MirrorFails,
	}
	if report.CatalogError != "" {
		s.log.WithFields(fields).WithField("catalog_error", report.CatalogError).Warn("catalog sync finished without a catalog")
		return
	}
	s.log.WithFields(fields).Debug("catalog sync finished")
}
