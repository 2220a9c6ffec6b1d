package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/service"
)

// CatalogSyncer runs a catalog reconciliation pass.
type CatalogSyncer interface {
	RunCatalogSync(ctx context.Context) (model.SyncReport, error)
}

var _ CatalogSyncer = (*service.Engine)(nil)

// CatalogConsumer listens on catalog.updated and triggers a sync for each
// message.
type CatalogConsumer struct {
	url    string
	syncer CatalogSyncer
	log    logrus.FieldLogger
}

// NewCatalogConsumer returns a consumer for the catalog change queue.  It
// does not connect until Run is called.
func NewCatalogConsumer(url string, syncer CatalogSyncer, log logrus.FieldLogger) *CatalogConsumer {
	return &CatalogConsumer{url: url, syncer: syncer, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker goes away.
func (c *CatalogConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(c.url, DefaultDialTimeout)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", backoff.String()).Warn("catalog consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("catalog consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *CatalogConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// One sync at a time; syncs are serialized anyway.
	if err := ch.Qos(1, 0, false); err != nil {
		c.log.WithError(err).Warn("catalog consumer: set QoS failed")
	}
	if _, err := declare(ch, CatalogUpdatedQueue); err != nil {
		return err
	}
	msgs, err := ch.Consume(CatalogUpdatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.WithError(err).Error("catalog consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.  A sync already in progress counts as
// handled: the running pass will pick up the change or the next one will.
func (c *CatalogConsumer) Handle(ctx context.Context, body []byte) error {
	var msg CatalogUpdatedEvent
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
	}
	log := c.log.WithFields(logrus.Fields{"reason": msg.Reason, "remote_event_ids": msg.RemoteEventIDs})
	report, err := c.syncer.RunCatalogSync(ctx)
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		log.Info("catalog update received while a sync is running")
		return nil
	case err != nil:
		return fmt.Errorf("sync: %w", err)
	}
	log.WithFields(logrus.Fields{"created": report.Created, "updated": report.Updated, "deactivated": report.Deactivated}).
		Info("catalog update processed")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
