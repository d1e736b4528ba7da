package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"seatwatch/internal/engine"
	"seatwatch/internal/events"
)

// StreamHandler upgrades viewers to a WebSocket, pushes the current
// snapshot followed by live notification frames, and relays
// override/extend actions sent by the viewer back into the engine.
type StreamHandler struct {
	Engine *engine.Engine
	Bus    *events.Bus
}

// NewStreamHandler constructs a StreamHandler.  Both dependencies must
// be non-nil.
func NewStreamHandler(eng *engine.Engine, bus *events.Bus) *StreamHandler {
	if eng == nil || bus == nil {
		panic("nil dependency passed to NewStreamHandler")
	}
	return &StreamHandler{Engine: eng, Bus: bus}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitor is an open dashboard on a trusted network; any
	// origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientAction is an inbound command frame from a viewer.
type clientAction struct {
	Action string `json:"action"`
	SeatID int    `json:"seatId"`
}

// Stream handles GET /v1/seats/stream.  The connection first receives
// one seatUpdate frame per seat so a fresh viewer can render
// immediately, then live frames as they happen.  All writes go through
// the single loop below: gorilla allows only one concurrent writer per
// connection, so action failures detected by the reader goroutine are
// funneled back through the errs channel.
func (h *StreamHandler) Stream(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	// Subscribe before the snapshot so no frame between snapshot and
	// subscription can be missed.
	sub, cancel := h.Bus.Subscribe()
	defer cancel()

	for _, seat := range h.Engine.Seats() {
		if err := ws.WriteJSON(events.SeatUpdate(seat)); err != nil {
			return nil
		}
	}

	done := make(chan struct{})
	errs := make(chan events.Event, 4)
	go func() {
		defer close(done)
		for {
			var act clientAction
			if err := ws.ReadJSON(&act); err != nil {
				return // viewer went away, or sent garbage framing
			}
			if ev, ok := h.perform(act); !ok {
				select {
				case errs <- ev:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(ev); err != nil {
				return nil
			}
		case ev := <-errs:
			if err := ws.WriteJSON(ev); err != nil {
				return nil
			}
		}
	}
}

// perform runs one viewer action.  Successful actions produce bus
// frames on their own; failures come back as an error frame so the
// viewer can tell their click had no effect.
func (h *StreamHandler) perform(act clientAction) (events.Event, bool) {
	var err error
	switch act.Action {
	case "override":
		_, err = h.Engine.Override(act.SeatID)
	case "extend":
		_, err = h.Engine.Extend(act.SeatID)
	default:
		err = fmt.Errorf("unknown action %q", act.Action)
	}
	if err == nil {
		return events.Event{}, true
	}
	return events.Event{Type: events.TypeError, SeatID: act.SeatID, Message: err.Error()}, false
}
