// Package events defines the notification frames fanned out to live
// viewers and the in-process bus that carries them.  Every frame
// contains enough information for a viewer to update its display
// without querying the seat snapshot again.
package events

import (
	"fmt"
	"time"

	"seatwatch/internal/model"
)

// Frame types sent to subscribers.
const (
	TypeSeatUpdate   = "seatUpdate"
	TypeSeatTimeout  = "seatTimeout"
	TypeSeatExtended = "seatExtended"
	TypeError        = "error"
)

// Event is one notification frame.  Seat is set on seatUpdate frames
// and carries the full current state of the seat; the lifecycle frames
// (seatTimeout, seatExtended) carry the seat id and a human-readable
// message instead.
type Event struct {
	Type      string      `json:"type"`
	Seat      *model.Seat `json:"seat,omitempty"`
	SeatID    int         `json:"seatId,omitempty"`
	Message   string      `json:"message,omitempty"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

// SeatUpdate builds the frame emitted on every occupancy-affecting
// mutation.
func SeatUpdate(seat model.Seat) Event {
	return Event{Type: TypeSeatUpdate, Seat: &seat}
}

// SeatTimeout builds the frame emitted when a seat is released
// automatically because its time limit elapsed.
func SeatTimeout(id int) Event {
	return Event{
		Type:    TypeSeatTimeout,
		SeatID:  id,
		Message: fmt.Sprintf("Seat %d was released automatically after the time limit.", id),
	}
}

// SeatExtended builds the frame emitted when an extend succeeds.
func SeatExtended(id int, expiresAt time.Time) Event {
	return Event{
		Type:      TypeSeatExtended,
		SeatID:    id,
		Message:   fmt.Sprintf("Seat %d extended.", id),
		ExpiresAt: &expiresAt,
	}
}
