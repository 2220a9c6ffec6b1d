package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a sellable event whose seat inventory is owned by the remote
// authority.  Local rows are created and refreshed by the catalog sync and
// are never hard-deleted: an event that disappears upstream is only marked
// inactive.  This struct corresponds to a row in the `events` table.
//
// Fields:
//  ID          – local primary key.
//  RemoteID    – identity of the event at the authority (nil until first sync).
//  Title       – event title.
//  Description – optional long description.
//  Date        – local calendar date of the event (midnight in the configured zone).
//  Time        – local time of day, formatted HH:MM:SS.
//  SeatRows    – number of rows in the seat grid (>= 1).
//  SeatCols    – number of columns in the seat grid (>= 1).
//  TotalSeats  – always SeatRows * SeatCols.
//  UnitPrice   – price of one seat, never negative.
//  IsActive    – false once the event is gone from the authority's catalog.
type Event struct {
	ID          uint64          // events.id
	RemoteID    *int64          // events.remote_id (nullable)
	Title       string          // events.title
	Description string          // events.description
	Date        time.Time       // events.event_date
	Time        string          // events.event_time
	SeatRows    int             // events.seat_rows
	SeatCols    int             // events.seat_cols
	TotalSeats  int             // events.total_seats
	UnitPrice   decimal.Decimal // events.unit_price
	IsActive    bool            // events.is_active
	CreatedAt   time.Time       // events.created_at
	UpdatedAt   time.Time       // events.updated_at
}

// InBounds reports whether (row, col) lies inside the event's seat grid.
func (e Event) InBounds(row, col int) bool {
	return row >= 1 && col >= 1 && row <= e.SeatRows && col <= e.SeatCols
}

// HasRemote reports whether the event is linked to the authority.
func (e Event) HasRemote() bool { return e.RemoteID != nil }
