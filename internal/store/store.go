package store

import (
	"sync"
	"time"

	"seatwatch/internal/model"
)

// Store holds the canonical seat mapping.  All mutation goes through
// Apply and RefreshExpiry; mutations to the same seat are serialized by
// a per-seat mutex while distinct seats proceed in parallel.  The Store
// performs no timer management and emits no notifications — that is the
// engine's job.  It is a pure data holder.
type Store struct {
	timeout time.Duration
	locks   []sync.Mutex // one lock per seat, index id-1
	seats   []model.Seat // index id-1
}

// New creates a Store with seats 1..n, all unoccupied.  The timeout is
// the fixed duration added to the mutation time whenever a seat is
// occupied or extended; it never changes for the life of the process.
func New(n int, timeout time.Duration) *Store {
	s := &Store{
		timeout: timeout,
		locks:   make([]sync.Mutex, n),
		seats:   make([]model.Seat, n),
	}
	now := time.Now().UTC()
	for i := range s.seats {
		s.seats[i] = model.Seat{ID: i + 1, UpdatedAt: now}
	}
	return s
}

// Size returns the fixed number of seats.
func (s *Store) Size() int { return len(s.seats) }

// Timeout returns the fixed occupancy timeout.
func (s *Store) Timeout() time.Duration { return s.timeout }

func (s *Store) valid(id int) bool { return id >= 1 && id <= len(s.seats) }

// Get returns a copy of one seat.  Fails with ErrSeatNotFound when the
// id falls outside 1..N.
func (s *Store) Get(id int) (model.Seat, error) {
	if !s.valid(id) {
		return model.Seat{}, ErrSeatNotFound
	}
	s.locks[id-1].Lock()
	defer s.locks[id-1].Unlock()
	return s.seats[id-1], nil
}

// GetAll returns a snapshot of every seat ordered by id.  Each seat is
// copied under its own lock so a caller never observes a torn update
// mid-iteration.
func (s *Store) GetAll() []model.Seat {
	out := make([]model.Seat, len(s.seats))
	for i := range s.seats {
		s.locks[i].Lock()
		out[i] = s.seats[i]
		s.locks[i].Unlock()
	}
	return out
}

// Apply sets the seat's occupancy and stamps UpdatedAt.  Occupying a
// seat sets ExpiresAt to now + timeout; releasing it clears ExpiresAt,
// so an unoccupied seat never carries an expiry.  Returns a copy of the
// updated seat.
func (s *Store) Apply(id int, occupied bool, now time.Time) (model.Seat, error) {
	if !s.valid(id) {
		return model.Seat{}, ErrSeatNotFound
	}
	s.locks[id-1].Lock()
	defer s.locks[id-1].Unlock()
	seat := &s.seats[id-1]
	seat.Occupied = occupied
	seat.UpdatedAt = now
	if occupied {
		exp := now.Add(s.timeout)
		seat.ExpiresAt = &exp
	} else {
		seat.ExpiresAt = nil
	}
	return *seat, nil
}

// RefreshExpiry pushes an occupied seat's expiry out to now + timeout
// and stamps UpdatedAt.  Fails with ErrNotOccupied when the seat is
// free, leaving it untouched.
func (s *Store) RefreshExpiry(id int, now time.Time) (model.Seat, error) {
	if !s.valid(id) {
		return model.Seat{}, ErrSeatNotFound
	}
	s.locks[id-1].Lock()
	defer s.locks[id-1].Unlock()
	seat := &s.seats[id-1]
	if !seat.Occupied {
		return model.Seat{}, ErrNotOccupied
	}
	exp := now.Add(s.timeout)
	seat.ExpiresAt = &exp
	seat.UpdatedAt = now
	return *seat, nil
}
