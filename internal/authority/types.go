package authority

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemoteEvent is one entry of the authority's catalog.  Every field except
// the JSON names is optional on the wire, so pointers mark presence.
type RemoteEvent struct {
	ID          *int64           `json:"id"`
	Title       string           `json:"titulo"`
	Summary     string           `json:"resumen"`
	Description string           `json:"descripcion"`
	Date        *time.Time       `json:"fecha"`
	Address     string           `json:"direccion"`
	Image       string           `json:"imagen"`
	SeatRows    *int             `json:"filaAsientos"`
	SeatCols    *int             `json:"columnAsientos"`
	UnitPrice   *decimal.Decimal `json:"precioEntrada"`
	EventType   *RemoteEventType `json:"eventoTipo,omitempty"`
	Members     []RemoteMember   `json:"integrantes,omitempty"`
}

type RemoteEventType struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}

type RemoteMember struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Identifier string `json:"identificacion"`
}

// RemoteSeat is one seat as reported by the authority.  The same shape is
// used for the full snapshot and for the sparse non-free feed.
type RemoteSeat struct {
	Row      *int       `json:"fila"`
	Col      *int       `json:"columna"`
	Status   string     `json:"estado"`
	Occupant string     `json:"personaActual,omitempty"`
	Expires  *time.Time `json:"expira,omitempty"`
}

// RemoteSeatState is a record of the sparse feed: only non-free seats.
type RemoteSeatState = RemoteSeat

// Position is the wire form of a seat position.
type Position struct {
	Row int `json:"fila"`
	Col int `json:"columna"`
}

type holdRequest struct {
	EventID int64      `json:"eventoId"`
	Seats   []Position `json:"asientos"`
}

// HoldAck is the authority's reply to a hold request.
type HoldAck struct {
	EventID     int64      `json:"eventoId"`
	Accepted    bool       `json:"resultado"`
	Description string     `json:"descripcion"`
	Seats       []HoldSeat `json:"asientos"`
}

type HoldSeat struct {
	Row    int    `json:"fila"`
	Col    int    `json:"columna"`
	Status string `json:"estado"`
}

// SaleSeat is one seat of a sale request or response.
type SaleSeat struct {
	Row      int    `json:"fila"`
	Col      int    `json:"columna"`
	Occupant string `json:"persona"`
	Status   string `json:"estado,omitempty"`
}

// SaleRequest asks the authority to sell seats.  Price is the locally
// computed proposal; the authority may answer with its own.
type SaleRequest struct {
	EventID int64           `json:"eventoId"`
	Date    time.Time       `json:"fecha"`
	Price   decimal.Decimal `json:"precioVenta"`
	Seats   []SaleSeat      `json:"asientos"`
}

// SaleResponse is the authority's adjudication of a sale.
type SaleResponse struct {
	EventID     int64            `json:"eventoId"`
	SaleID      *int64           `json:"ventaId"`
	SaleDate    *time.Time       `json:"fechaVenta"`
	Seats       []SaleSeat       `json:"asientos"`
	Accepted    *bool            `json:"resultado"`
	Description string           `json:"descripcion"`
	Price       *decimal.Decimal `json:"precioVenta"`
}

// OK reports whether the authority confirmed the sale.
func (r *SaleResponse) OK() bool {
	return r != nil && r.Accepted != nil && *r.Accepted
}
