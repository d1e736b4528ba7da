package handler

import (
	"errors"   // for errors.Is comparisons against store sentinels
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters

	"github.com/labstack/echo/v4"

	"seatwatch/internal/engine"
	"seatwatch/internal/store"
)

// SeatHandler exposes the monitor's point-in-time query surface and
// the manual command surface.  All mutation is delegated to the
// engine; handlers only translate between HTTP and engine errors.
type SeatHandler struct {
	Engine *engine.Engine
}

// NewSeatHandler constructs a SeatHandler.  The engine must be
// non-nil.
func NewSeatHandler(eng *engine.Engine) *SeatHandler {
	if eng == nil {
		panic("nil engine passed to NewSeatHandler")
	}
	return &SeatHandler{Engine: eng}
}

// ListSeats handles GET /v1/seats.  It returns the atomic snapshot of
// every seat ordered by id.
func (h *SeatHandler) ListSeats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.Seats())
}

// GetSeat handles GET /v1/seats/:id.  Returns 404 when the id falls
// outside the fixed seat range.
func (h *SeatHandler) GetSeat(c echo.Context) error {
	id, err := seatID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	seat, err := h.Engine.Seat(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	return c.JSON(http.StatusOK, seat)
}

// OverrideSeat handles POST /v1/seats/:id/override.  It toggles the
// seat's occupancy regardless of current state and relays the result
// to the hardware, so the response is the seat after the flip.
func (h *SeatHandler) OverrideSeat(c echo.Context) error {
	id, err := seatID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	seat, err := h.Engine.Override(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	return c.JSON(http.StatusOK, seat)
}

// ExtendSeat handles POST /v1/seats/:id/extend.  Extending an
// unoccupied seat is a reported failure (409), not a silent no-op, so
// the dashboard can tell the user their action had no effect.
func (h *SeatHandler) ExtendSeat(c echo.Context) error {
	id, err := seatID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	seat, err := h.Engine.Extend(id)
	switch {
	case errors.Is(err, store.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, store.ErrNotOccupied):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot extend an unoccupied seat"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, seat)
}

// seatID parses the :id path parameter.  Only non-numeric values are
// rejected here; out-of-range ids flow through to the engine, which
// reports them as not found without mutating anything.
func seatID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errors.New("invalid seat id")
	}
	return id, nil
}
