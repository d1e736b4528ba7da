package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatwatch/internal/events"
	"seatwatch/internal/store"
)

// recordingBus captures every published frame in order.
type recordingBus struct {
	mu     sync.Mutex
	frames []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, ev)
}

func (b *recordingBus) all() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.frames...)
}

func (b *recordingBus) types() []string {
	var out []string
	for _, ev := range b.all() {
		out = append(out, ev.Type)
	}
	return out
}

// fakeActuator records relayed hardware commands.
type fakeActuator struct {
	mu   sync.Mutex
	cmds []command
}

type command struct {
	seatID   int
	occupied bool
}

func (a *fakeActuator) SetOccupied(_ context.Context, seatID int, occupied bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cmds = append(a.cmds, command{seatID: seatID, occupied: occupied})
}

func (a *fakeActuator) commands() []command {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]command(nil), a.cmds...)
}

func newTestEngine(n int, timeout time.Duration) (*Engine, *recordingBus, *fakeActuator) {
	bus := &recordingBus{}
	act := &fakeActuator{}
	return New(store.New(n, timeout), bus, act), bus, act
}

// assertInvariants checks the occupied/expiry/timer agreement for one
// seat: occupied iff expiry present iff a timer is live.
func assertInvariants(t *testing.T, e *Engine, id int) {
	t.Helper()
	seat, err := e.Seat(id)
	require.NoError(t, err)
	if seat.Occupied {
		assert.NotNil(t, seat.ExpiresAt, "occupied seat %d must carry an expiry", id)
		assert.True(t, e.sched.Pending(id), "occupied seat %d must have a live timer", id)
	} else {
		assert.Nil(t, seat.ExpiresAt, "free seat %d must not carry an expiry", id)
		assert.False(t, e.sched.Pending(id), "free seat %d must not have a live timer", id)
	}
}

func TestHardwareEventOccupies(t *testing.T) {
	e, bus, act := newTestEngine(4, time.Hour)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	seat, err := e.HardwareEvent(2, true)

	require.NoError(t, err)
	assert.True(t, seat.Occupied)
	require.NotNil(t, seat.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour), *seat.ExpiresAt)
	assert.Equal(t, []string{events.TypeSeatUpdate}, bus.types())
	assertInvariants(t, e, 2)

	// Hardware-origin events must not be echoed back to the hardware.
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, act.commands())
}

func TestFixedClockOccupancyDoesNotExpireEarly(t *testing.T) {
	e, bus, act := newTestEngine(4, time.Hour)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	_, err := e.HardwareEvent(2, true)
	require.NoError(t, err)

	// The timer delay must be computed against the injected clock, so
	// an expiry an hour out never fires within the test, regardless of
	// how far the fixture time sits from the wall clock.
	time.Sleep(50 * time.Millisecond)

	seat, err := e.Seat(2)
	require.NoError(t, err)
	assert.True(t, seat.Occupied)
	assert.Equal(t, []string{events.TypeSeatUpdate}, bus.types())
	assert.Empty(t, act.commands())
	assertInvariants(t, e, 2)
}

func TestHardwareEventReleases(t *testing.T) {
	e, bus, _ := newTestEngine(4, time.Hour)

	_, err := e.HardwareEvent(2, true)
	require.NoError(t, err)
	seat, err := e.HardwareEvent(2, false)
	require.NoError(t, err)

	assert.False(t, seat.Occupied)
	assert.Nil(t, seat.ExpiresAt)
	assert.Equal(t, []string{events.TypeSeatUpdate, events.TypeSeatUpdate}, bus.types())
	assertInvariants(t, e, 2)
}

func TestOverrideTogglesAndRelays(t *testing.T) {
	e, bus, act := newTestEngine(4, time.Hour)

	seat, err := e.Override(2)
	require.NoError(t, err)
	assert.True(t, seat.Occupied)
	assertInvariants(t, e, 2)

	seat, err = e.Override(2)
	require.NoError(t, err)
	assert.False(t, seat.Occupied)
	assertInvariants(t, e, 2)

	assert.Equal(t, []string{events.TypeSeatUpdate, events.TypeSeatUpdate}, bus.types())
	require.Eventually(t, func() bool { return len(act.commands()) == 2 }, time.Second, 5*time.Millisecond)
	cmds := act.commands()
	assert.Contains(t, cmds, command{seatID: 2, occupied: true})
	assert.Contains(t, cmds, command{seatID: 2, occupied: false})
}

func TestExtendOnFreeSeatFails(t *testing.T) {
	e, bus, _ := newTestEngine(4, time.Hour)

	_, err := e.Extend(1)

	assert.ErrorIs(t, err, store.ErrNotOccupied)
	assert.Empty(t, bus.types())
	assertInvariants(t, e, 1)
}

func TestExtendRecomputesExpiryFromNow(t *testing.T) {
	e, bus, _ := newTestEngine(4, time.Hour)
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(40 * time.Minute)
	e.now = func() time.Time { return t0 }

	_, err := e.HardwareEvent(3, true)
	require.NoError(t, err)

	e.now = func() time.Time { return t1 }
	seat, err := e.Extend(3)

	require.NoError(t, err)
	require.NotNil(t, seat.ExpiresAt)
	assert.Equal(t, t1.Add(time.Hour), *seat.ExpiresAt)
	assert.Equal(t, t1, seat.UpdatedAt)
	assert.Equal(t,
		[]string{events.TypeSeatUpdate, events.TypeSeatUpdate, events.TypeSeatExtended},
		bus.types())
	assertInvariants(t, e, 3)
}

func TestDoubleExtendKeepsOnlyLatest(t *testing.T) {
	e, _, _ := newTestEngine(4, time.Hour)
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return t0 }

	_, err := e.HardwareEvent(1, true)
	require.NoError(t, err)

	t1 := t0.Add(time.Minute)
	e.now = func() time.Time { return t1 }
	_, err = e.Extend(1)
	require.NoError(t, err)

	t2 := t0.Add(2 * time.Minute)
	e.now = func() time.Time { return t2 }
	seat, err := e.Extend(1)
	require.NoError(t, err)

	// The second extend wins: one live timer at t2 + timeout.
	require.NotNil(t, seat.ExpiresAt)
	assert.Equal(t, t2.Add(time.Hour), *seat.ExpiresAt)
	assertInvariants(t, e, 1)
}

func TestOutOfRangeIDs(t *testing.T) {
	e, bus, _ := newTestEngine(4, time.Hour)

	for _, id := range []int{0, -3, 5, 99} {
		_, err := e.HardwareEvent(id, true)
		assert.ErrorIs(t, err, store.ErrSeatNotFound, "hardware id %d", id)
		_, err = e.Override(id)
		assert.ErrorIs(t, err, store.ErrSeatNotFound, "override id %d", id)
		_, err = e.Extend(id)
		assert.ErrorIs(t, err, store.ErrSeatNotFound, "extend id %d", id)
	}
	// Failed entry points must not emit anything.
	assert.Empty(t, bus.types())
}

func TestAutoReleaseAfterTimeout(t *testing.T) {
	e, bus, act := newTestEngine(4, 30*time.Millisecond)

	_, err := e.HardwareEvent(3, true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		seat, err := e.Seat(3)
		return err == nil && !seat.Occupied
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t,
		[]string{events.TypeSeatUpdate, events.TypeSeatTimeout, events.TypeSeatUpdate},
		bus.types())
	assertInvariants(t, e, 3)

	// The release is relayed so the seat's LED turns off.
	require.Eventually(t, func() bool { return len(act.commands()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, command{seatID: 3, occupied: false}, act.commands()[0])
}

func TestStaleFireAfterRearmIsNoop(t *testing.T) {
	e, bus, _ := newTestEngine(4, time.Hour)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	_, err := e.HardwareEvent(2, true)
	require.NoError(t, err)

	// A fire armed for an instant before the current expiry lost the
	// race against a re-arm and must change nothing.
	e.autoRelease(2, now.Add(30*time.Minute))

	seat, err := e.Seat(2)
	require.NoError(t, err)
	assert.True(t, seat.Occupied)
	assert.Equal(t, []string{events.TypeSeatUpdate}, bus.types())
	assertInvariants(t, e, 2)
}

func TestFireOnFreeSeatIsNoop(t *testing.T) {
	e, bus, _ := newTestEngine(4, time.Hour)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	_, err := e.HardwareEvent(2, true)
	require.NoError(t, err)
	_, err = e.Override(2) // manual release wins the race
	require.NoError(t, err)

	before := len(bus.types())
	e.autoRelease(2, now.Add(2*time.Hour))

	// No double release: no seatTimeout, no extra seatUpdate.
	assert.Len(t, bus.types(), before)
	assertInvariants(t, e, 2)
}

func TestScenarioFourSeats(t *testing.T) {
	e, bus, act := newTestEngine(4, time.Hour)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	// Hardware: seat 2 becomes occupied.
	seat, err := e.HardwareEvent(2, true)
	require.NoError(t, err)
	require.NotNil(t, seat.ExpiresAt)
	assert.Equal(t, seat.UpdatedAt.Add(time.Hour), *seat.ExpiresAt)

	// Override: seat 2 released, command relayed.
	seat, err = e.Override(2)
	require.NoError(t, err)
	assert.False(t, seat.Occupied)
	require.Eventually(t, func() bool { return len(act.commands()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, command{seatID: 2, occupied: false}, act.commands()[0])

	// Extend on available seat 1: rejected, nothing emitted.
	before := len(bus.types())
	_, err = e.Extend(1)
	assert.ErrorIs(t, err, store.ErrNotOccupied)
	assert.Len(t, bus.types(), before)

	for id := 1; id <= 4; id++ {
		assertInvariants(t, e, id)
	}
}
