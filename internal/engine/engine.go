// Package engine is the single writer over the seat store.  Every
// state change — hardware button event, manual override, manual
// extend, automatic expiry — funnels through here under a per-seat
// lock that covers the store mutation and the timer arm/cancel as one
// atomic step.  Producers and consumers never touch the store
// directly.
package engine

import (
	"context"
	"sync"
	"time"

	"seatwatch/internal/events"
	"seatwatch/internal/model"
	"seatwatch/internal/scheduler"
	"seatwatch/internal/store"
)

// relayTimeout bounds how long a hardware command may wait on the
// broker before it is dropped.
const relayTimeout = 5 * time.Second

// Notifier receives outbound notification frames.  Publish must never
// block; events.Bus satisfies this.
type Notifier interface {
	Publish(events.Event)
}

// Actuator relays occupancy commands to the hardware LED driver.
// Delivery is best effort: implementations log and drop on failure
// rather than returning an error, since there is no caller to report
// to.
type Actuator interface {
	SetOccupied(ctx context.Context, seatID int, occupied bool)
}

// Engine applies state-change requests from all producers to the seat
// store, keeps the expiry scheduler in step, and publishes
// notification frames.  A nil actuator disables hardware relay, which
// is how a tester gets behavior indistinguishable from a real button.
type Engine struct {
	store    *store.Store
	sched    *scheduler.Scheduler
	bus      Notifier
	actuator Actuator
	locks    []sync.Mutex // serializes all transitions for one seat
	now      func() time.Time
}

// New wires an Engine over the given store.  The Engine owns its
// scheduler; timer fires re-enter through the auto-release path below.
// The scheduler shares the engine's clock so arming delays are
// computed against the same time base that produced the expiry
// instants.
func New(st *store.Store, bus Notifier, actuator Actuator) *Engine {
	e := &Engine{
		store:    st,
		bus:      bus,
		actuator: actuator,
		locks:    make([]sync.Mutex, st.Size()),
		now:      func() time.Time { return time.Now().UTC() },
	}
	e.sched = scheduler.New(e.autoRelease, func() time.Time { return e.now() })
	return e
}

// Seats returns the ordered snapshot of all seats.
func (e *Engine) Seats() []model.Seat { return e.store.GetAll() }

// Seat returns one seat by id.
func (e *Engine) Seat(id int) (model.Seat, error) { return e.store.Get(id) }

// Shutdown cancels every pending expiry timer.
func (e *Engine) Shutdown() { e.sched.StopAll() }

// HardwareEvent records an occupancy change reported by the button
// firmware.  The resulting state is not relayed back to the hardware:
// the firmware already knows it.
func (e *Engine) HardwareEvent(id int, occupied bool) (model.Seat, error) {
	if err := e.check(id); err != nil {
		return model.Seat{}, err
	}
	e.locks[id-1].Lock()
	defer e.locks[id-1].Unlock()
	return e.apply(id, occupied), nil
}

// Override toggles the seat's occupancy on behalf of a viewer and
// relays the resulting state to the hardware actuator so the seat's
// LED follows.
func (e *Engine) Override(id int) (model.Seat, error) {
	if err := e.check(id); err != nil {
		return model.Seat{}, err
	}
	e.locks[id-1].Lock()
	defer e.locks[id-1].Unlock()
	cur, err := e.store.Get(id)
	if err != nil {
		return model.Seat{}, err
	}
	seat := e.apply(id, !cur.Occupied)
	e.relay(id, seat.Occupied)
	return seat, nil
}

// Extend pushes an occupied seat's expiry out to now + timeout and
// re-arms its timer.  Fails with store.ErrNotOccupied when nobody is
// checked in, so the caller can tell the viewer their action had no
// effect.
func (e *Engine) Extend(id int) (model.Seat, error) {
	if err := e.check(id); err != nil {
		return model.Seat{}, err
	}
	e.locks[id-1].Lock()
	defer e.locks[id-1].Unlock()
	seat, err := e.store.RefreshExpiry(id, e.now())
	if err != nil {
		return model.Seat{}, err
	}
	e.sched.Arm(id, *seat.ExpiresAt)
	e.bus.Publish(events.SeatUpdate(seat))
	e.bus.Publish(events.SeatExtended(id, *seat.ExpiresAt))
	return seat, nil
}

// autoRelease is the scheduler's fire path.  A fire that lost a race —
// the seat was already toggled free, or re-armed to a later expiry —
// is a silent no-op, which guarantees at most one release notification
// per release.
func (e *Engine) autoRelease(id int, firedAt time.Time) {
	if err := e.check(id); err != nil {
		return
	}
	e.locks[id-1].Lock()
	defer e.locks[id-1].Unlock()
	cur, err := e.store.Get(id)
	if err != nil || !cur.Occupied {
		return
	}
	if cur.ExpiresAt.After(firedAt) {
		return // re-armed since this timer was set
	}
	seat, _ := e.store.Apply(id, false, e.now())
	e.sched.Cancel(id)
	e.relay(id, false)
	e.bus.Publish(events.SeatTimeout(id))
	e.bus.Publish(events.SeatUpdate(seat))
}

// apply performs the occupancy transition shared by hardware events
// and overrides: mutate the store, arm or cancel the timer, publish a
// seatUpdate.  Callers must hold the seat's lock.
func (e *Engine) apply(id int, occupied bool) model.Seat {
	seat, _ := e.store.Apply(id, occupied, e.now())
	if occupied {
		e.sched.Arm(id, *seat.ExpiresAt)
	} else {
		e.sched.Cancel(id)
	}
	e.bus.Publish(events.SeatUpdate(seat))
	return seat
}

// relay forwards the resulting occupancy to the hardware actuator.
// Fire and forget: a dead hardware link must never block a mutation or
// delay the next event.
func (e *Engine) relay(id int, occupied bool) {
	if e.actuator == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
		defer cancel()
		e.actuator.SetOccupied(ctx, id, occupied)
	}()
}

func (e *Engine) check(id int) error {
	if id < 1 || id > len(e.locks) {
		return store.ErrSeatNotFound
	}
	return nil
}
