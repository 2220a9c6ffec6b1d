// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

// Queue names.  Both are durable.
const (
	SaleConfirmedQueue  = "sale.confirmed"
	CatalogUpdatedQueue = "catalog.updated"
)

// DefaultDialTimeout bounds the TCP connect and AMQP handshake.
const DefaultDialTimeout = 3 * time.Second

func dial(url string, timeout time.Duration) (*amqp.Connection, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// SaleConfirmedEvent is published once a sale is committed locally.  It
// carries enough for downstream consumers (mailers, analytics) to act
// without reading the engine's database.
type SaleConfirmedEvent struct {
	MessageID    string          `json:"message_id"`
	SaleID       uint64          `json:"sale_id"`
	RemoteSaleID int64           `json:"remote_sale_id"`
	EventID      uint64          `json:"event_id"`
	SeatCount    int             `json:"seat_count"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Seats        []SeatRef       `json:"seats"`
	SaleDate     time.Time       `json:"sale_date"`
	PublishedAt  time.Time       `json:"published_at"`
}

// SeatRef identifies a sold seat by position.
type SeatRef struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Occupant string `json:"occupant"`
}

// NewSaleConfirmedEvent builds the message for sale.
func NewSaleConfirmedEvent(sale model.Sale, now time.Time) SaleConfirmedEvent {
	ev := SaleConfirmedEvent{
		MessageID:    uuid.NewString(),
		SaleID:       sale.ID,
		RemoteSaleID: sale.RemoteSaleID,
		EventID:      sale.EventID,
		SeatCount:    sale.SeatCount,
		TotalPrice:   sale.TotalPrice,
		SaleDate:     sale.SaleDate.UTC(),
		PublishedAt:  now.UTC(),
		Seats:        make([]SeatRef, len(sale.Seats)),
	}
	for i, s := range sale.Seats {
		ev.Seats[i] = SeatRef{Row: s.Row, Col: s.Col, Occupant: s.Occupant}
	}
	return ev
}

// CatalogUpdatedEvent tells the engine the authority's catalog changed.
// Every field is informational; any message triggers a full sync.
type CatalogUpdatedEvent struct {
	RemoteEventIDs []int64   `json:"remote_event_ids,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	SentAt         time.Time `json:"sent_at,omitempty"`
}
