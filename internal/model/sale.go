package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatusConfirmed is the only status a local sale can have.  Sales are
// written after the authority has confirmed them and are never updated.
const SaleStatusConfirmed = "CONFIRMED"

// Sale is a confirmed purchase of one or more seats of an event.  It maps to
// the `sales` table; the covered seats live in `sale_seats`.
type Sale struct {
	ID           uint64          // sales.id
	EventID      uint64          // sales.event_id
	RemoteSaleID int64           // sales.remote_sale_id
	SaleDate     time.Time       // sales.sale_date
	Status       string          // sales.status (always CONFIRMED)
	Description  string          // sales.description
	TotalPrice   decimal.Decimal // sales.total_price
	SeatCount    int             // sales.seat_count
	Seats        []SaleSeat      // rows of sale_seats
	CreatedAt    time.Time       // sales.created_at
}

// SaleSeat is one seat covered by a sale.  Row and Col are the durable
// reference; SeatID is the mirror row the sale locked, which may be gone
// after the next mirror regeneration.
type SaleSeat struct {
	SaleID   uint64 `json:"-"`
	EventID  uint64 `json:"-"`
	SeatID   uint64 `json:"seat_id"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Occupant string `json:"occupant"`
}
