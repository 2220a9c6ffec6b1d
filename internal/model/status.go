package model

import "strings"

// SeatStatus is the status persisted on a mirror seat row.
type SeatStatus string

const (
	SeatFree SeatStatus = "FREE"
	SeatHeld SeatStatus = "HELD"
	SeatSold SeatStatus = "SOLD"
)

// Valid reports whether s is one of the three persisted statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatFree, SeatHeld, SeatSold:
		return true
	}
	return false
}

// RemoteStatus is the normalized form of the status vocabulary used by the
// authority ("BLOQUEADO", "Vendido", "Ocupado", "LIBRE", ...).
type RemoteStatus int

const (
	RemoteUnknown RemoteStatus = iota
	RemoteFree
	RemoteHeld
	RemoteSold
)

func (s RemoteStatus) String() string {
	switch s {
	case RemoteFree:
		return "FREE"
	case RemoteHeld:
		return "HELD"
	case RemoteSold:
		return "SOLD"
	}
	return "UNKNOWN"
}

// NormalizeRemoteStatus maps a raw authority status onto RemoteStatus using a
// case-insensitive substring match.  Anything that matches none of the known
// stems is RemoteUnknown; callers decide how to treat it.
func NormalizeRemoteStatus(raw string) RemoteStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case s == "":
		return RemoteUnknown
	case strings.Contains(s, "BLOQ"):
		return RemoteHeld
	case strings.Contains(s, "VEND"), strings.Contains(s, "OCUP"):
		return RemoteSold
	case strings.Contains(s, "LIBR"):
		return RemoteFree
	}
	return RemoteUnknown
}

// MirrorStatus converts a remote status into the status stored on a mirror
// seat.  Unknown and empty statuses fall back to FREE.
func (s RemoteStatus) MirrorStatus() SeatStatus {
	switch s {
	case RemoteHeld:
		return SeatHeld
	case RemoteSold:
		return SeatSold
	}
	return SeatFree
}

// LiveStatus is the request-time status of a seat in the live projection.
type LiveStatus string

const (
	LiveFree        LiveStatus = "FREE"
	LiveSold        LiveStatus = "SOLD"
	LiveHeldCurrent LiveStatus = "HELD_CURRENT"
	LiveHeldExpired LiveStatus = "HELD_EXPIRED"
	// LiveUnknown marks a raw status the projector could not classify.  The
	// raw value is kept on LiveSeat.Raw.
	LiveUnknown LiveStatus = "UNKNOWN"
)

// Holdable reports whether a new hold may be requested for a seat in this
// state.  An expired hold is treated like a free seat.
func (s LiveStatus) Holdable() bool {
	return s == LiveFree || s == LiveHeldExpired
}
