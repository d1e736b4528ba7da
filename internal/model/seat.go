package model

import "time"

// Seat describes one physical seat tracked by the monitor.  Seats are
// created once at startup, numbered 1..N, and never added, removed or
// renumbered while the process runs.
//
// Fields:
//  ID        – 1-based seat identifier, stable for the process lifetime.
//  Occupied  – whether someone is currently checked in at the seat.
//  UpdatedAt – when the seat last changed (occupancy flip or extend).
//  ExpiresAt – when the seat auto-releases; set iff Occupied is true.
//              Clients derive remaining time as ExpiresAt − now at read
//              time; the monitor never stores a countdown.
type Seat struct {
	ID        int        `json:"id"`
	Occupied  bool       `json:"occupied"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
