package model

import "time"

// Seat is a row of the local seat mirror.  The whole set of seats of an
// event is regenerated from the authority's snapshot on every mirror sync,
// so IDs are not stable across syncs; (EventID, Row, Col) is.
type Seat struct {
	ID        uint64     // seats.id
	EventID   uint64     // seats.event_id
	Row       int        // seats.seat_row (1-based)
	Col       int        // seats.seat_col (1-based)
	Status    SeatStatus // seats.status
	Occupant  *string    // seats.occupant (nullable)
	CreatedAt time.Time  // seats.created_at
}

// Position identifies a seat inside an event's grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
