// Package queue connects the monitor to the button/LED firmware over
// RabbitMQ: a consumer feeding debounced occupancy events into the
// engine, and a best-effort publisher relaying LED commands back.
package queue

// OccupancyEvent is the payload the button firmware publishes on the
// seat.events queue whenever a debounced press flips a seat, and once
// per seat at boot to announce the initial state.  The monitor
// tolerates missing boot messages: the store's own initialization is
// authoritative.
type OccupancyEvent struct {
	SeatID   int  `json:"seat_id"`
	Occupied bool `json:"occupied"`
}

// OccupancyCommand is the mirror payload published on the
// seat.commands queue when a viewer override or an automatic release
// must be reflected on the seat's LED.
type OccupancyCommand struct {
	SeatID   int  `json:"seat_id"`
	Occupied bool `json:"occupied"`
}
