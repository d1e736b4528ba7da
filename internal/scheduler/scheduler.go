// Package scheduler arms one auto-release timer per occupied seat.  It
// never touches seat state itself: when a timer fires it hands the seat
// id and the armed fire time to a callback, and the engine decides
// whether the fire is still current.
package scheduler

import (
	"sync"
	"time"
)

// FireFunc is invoked on a timer goroutine when a seat's expiry timer
// fires.  firedAt is the instant the timer was armed for, not the wall
// clock at invocation, so the callback can detect a stale fire.
type FireFunc func(id int, firedAt time.Time)

// Scheduler keeps at most one pending timer per seat.  Arming a seat
// replaces any previous timer under the same lock, so the old and the
// new timer can never both reach the callback for the same arming.
type Scheduler struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
	fire   FireFunc
	now    func() time.Time
}

// New creates a Scheduler that invokes fire when a seat's timer
// elapses.  now supplies the current time when computing arming
// delays; a nil now uses the wall clock.  The caller must pass the
// same clock it uses to compute expiry instants, otherwise the delay
// and the deadline drift apart.
func New(fire FireFunc, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{timers: make(map[int]*time.Timer), fire: fire, now: now}
}

// Arm schedules the seat to fire at fireAt, cancelling any pending
// timer for the same seat first.  Under rapid re-arming only the most
// recent call wins.
func (s *Scheduler) Arm(id int, fireAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	d := fireAt.Sub(s.now())
	if d < 0 {
		d = 0
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		// Only remove our own entry; a re-arm may have replaced it
		// between the timer elapsing and this lock being acquired.
		if cur, ok := s.timers[id]; ok && cur == t {
			delete(s.timers, id)
		}
		s.mu.Unlock()
		s.fire(id, fireAt)
	})
	s.timers[id] = t
}

// Cancel stops any pending timer for the seat.  No-op when none
// exists.
func (s *Scheduler) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports whether the seat currently has a live timer.
func (s *Scheduler) Pending(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// StopAll cancels every pending timer.  Used at shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
