package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/service"
)

var _ service.SalePublisher = (*Publisher)(nil)

// Publisher sends sale confirmations to RabbitMQ.  The connection is opened
// on first use and reopened after a failure.  Calls are serialized because
// an amqp channel is not safe for concurrent publishing.
type Publisher struct {
	url         string
	dialTimeout time.Duration
	log         logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, dialTimeout: DefaultDialTimeout, log: log}
}

// WithDialTimeout replaces DefaultDialTimeout and returns p.
func (p *Publisher) WithDialTimeout(d time.Duration) *Publisher {
	p.dialTimeout = d
	return p
}

// PublishSaleConfirmed publishes a persistent message to the sale.confirmed
// queue.  Errors are returned for the caller to log; they never affect the
// sale itself.
func (p *Publisher) PublishSaleConfirmed(ctx context.Context, sale model.Sale) error {
	msg := NewSaleConfirmedEvent(sale, time.Now())
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal sale %d: %w", sale.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",                 // default exchange
		SaleConfirmedQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    msg.PublishedAt,
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	p.log.WithFields(logrus.Fields{"sale_id": sale.ID, "message_id": msg.MessageID}).Debug("sale confirmation published")
	return nil
}

// channel returns an open channel with the queue declared.  p.mu must be
// held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := dial(p.url, p.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if _, err := declare(ch, SaleConfirmedQueue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("rabbitmq: declare %s: %w", name, err)
	}
	return q, nil
}
