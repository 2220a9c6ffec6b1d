package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiveSeat is one cell of the live seat projection.  It is computed on every
// read from the authority's sparse feed and never stored.
type LiveSeat struct {
	Row       int        `json:"row"`
	Col       int        `json:"col"`
	Status    LiveStatus `json:"status"`
	Raw       string     `json:"raw,omitempty"` // original status when Status is UNKNOWN
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Holder    string     `json:"holder,omitempty"`
}

// Grid is the complete live projection of an event: Rows*Cols cells stored
// row-major.  Degraded is set when the authority could not be reached and
// the grid is the all-FREE default.
type Grid struct {
	EventID  uint64     `json:"event_id"`
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Seats    []LiveSeat `json:"seats"`
	Degraded bool       `json:"degraded,omitempty"`
}

// NewFreeGrid returns a rows x cols grid where every seat is FREE.
func NewFreeGrid(eventID uint64, rows, cols int) Grid {
	g := Grid{EventID: eventID, Rows: rows, Cols: cols}
	if rows <= 0 || cols <= 0 {
		return g
	}
	g.Seats = make([]LiveSeat, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			g.Seats = append(g.Seats, LiveSeat{Row: r, Col: c, Status: LiveFree})
		}
	}
	return g
}

// At returns the cell at (row, col) or nil when the position is outside the
// grid.
func (g *Grid) At(row, col int) *LiveSeat {
	if row < 1 || col < 1 || row > g.Rows || col > g.Cols {
		return nil
	}
	i := (row-1)*g.Cols + (col - 1)
	if i >= len(g.Seats) {
		return nil
	}
	return &g.Seats[i]
}

// HoldConfirmation acknowledges one held seat.
type HoldConfirmation struct {
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Status    string    `json:"status"` // always "HELD"
	ExpiresAt time.Time `json:"expires_at"`
}

// HoldResult is the outcome of a hold request.  Accepted is false when the
// authority refused the hold; that is a normal outcome, not an error.
type HoldResult struct {
	EventID       uint64             `json:"event_id"`
	Accepted      bool               `json:"accepted"`
	Description   string             `json:"description,omitempty"`
	Confirmations []HoldConfirmation `json:"seats,omitempty"`
}

// SeatSaleRequest is one seat of a sale request together with the name of
// the person who will occupy it.
type SeatSaleRequest struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Occupant string `json:"occupant"`
}

// SaleOutcome is returned by a sale attempt.  Sale is set only when the
// authority accepted and the sale was persisted.
type SaleOutcome struct {
	Accepted     bool            `json:"accepted"`
	RemoteSaleID int64           `json:"remote_sale_id,omitempty"`
	Description  string          `json:"description,omitempty"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SaleDate     *time.Time      `json:"sale_date,omitempty"`
	Sale         *Sale           `json:"sale,omitempty"`
}

// SyncReport summarizes one catalog reconciliation pass.  CatalogError is
// set when the catalog could not be fetched and nothing was touched.
type SyncReport struct {
	Fetched      int    `json:"fetched"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	Unchanged    int    `json:"unchanged"`
	Skipped      int    `json:"skipped"`
	Deactivated  int    `json:"deactivated"`
	SeatsSynced  int    `json:"seats_synced"`
	MirrorFails  int    `json:"mirror_failures"`
	CatalogError string `json:"catalog_error,omitempty"`
}
