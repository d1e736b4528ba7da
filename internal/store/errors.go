// Package store owns the canonical in-memory state of every seat.
// These sentinel values let higher layers such as handlers distinguish
// between failure scenarios: ErrSeatNotFound should be translated into
// an HTTP 404 response, ErrNotOccupied into an HTTP 409.
package store

import "errors"

// ErrSeatNotFound is returned when a seat id falls outside the fixed
// range 1..N configured at startup.
var ErrSeatNotFound = errors.New("seat not found")

// ErrNotOccupied is returned when an operation requires an occupied
// seat, such as extending a seat nobody has checked in to.
var ErrNotOccupied = errors.New("seat not occupied")
