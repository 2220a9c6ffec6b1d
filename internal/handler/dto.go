package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

type eventResponse struct {
	ID          uint64          `json:"id"`
	RemoteID    *int64          `json:"remote_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Time        string          `json:"time"` // HH:MM:SS
	SeatRows    int             `json:"seat_rows"`
	SeatCols    int             `json:"seat_cols"`
	TotalSeats  int             `json:"total_seats"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsActive    bool            `json:"is_active"`
}

func toEvent(e model.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		RemoteID:    e.RemoteID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format(time.DateOnly),
		Time:        e.Time,
		SeatRows:    e.SeatRows,
		SeatCols:    e.SeatCols,
		TotalSeats:  e.TotalSeats,
		UnitPrice:   e.UnitPrice,
		IsActive:    e.IsActive,
	}
}

type saleResponse struct {
	ID           uint64           `json:"id"`
	EventID      uint64           `json:"event_id"`
	RemoteSaleID int64            `json:"remote_sale_id"`
	SaleDate     time.Time        `json:"sale_date"`
	Status       string           `json:"status"`
	Description  string           `json:"description,omitempty"`
	TotalPrice   decimal.Decimal  `json:"total_price"`
	SeatCount    int              `json:"seat_count"`
	Seats        []model.SaleSeat `json:"seats"`
}

func toSale(s model.Sale) saleResponse {
	return saleResponse{
		ID:           s.ID,
		EventID:      s.EventID,
		RemoteSaleID: s.RemoteSaleID,
		SaleDate:     s.SaleDate,
		Status:       s.Status,
		Description:  s.Description,
		TotalPrice:   s.TotalPrice,
		SeatCount:    s.SeatCount,
		Seats:        s.Seats,
	}
}

type saleOutcomeResponse struct {
	Accepted     bool            `json:"accepted"`
	RemoteSaleID int64           `json:"remote_sale_id,omitempty"`
	Description  string          `json:"description,omitempty"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SaleDate     *time.Time      `json:"sale_date,omitempty"`
	Sale         *saleResponse   `json:"sale,omitempty"`
}

func toSaleOutcome(o model.SaleOutcome) saleOutcomeResponse {
	r := saleOutcomeResponse{
		Accepted:     o.Accepted,
		RemoteSaleID: o.RemoteSaleID,
		Description:  o.Description,
		TotalPrice:   o.TotalPrice,
		SaleDate:     o.SaleDate,
	}
	if o.Sale != nil {
		s := toSale(*o.Sale)
		r.Sale = &s
	}
	return r
}
