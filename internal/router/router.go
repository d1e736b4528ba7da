package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"seatwatch/internal/handler" // handlers implementing the seat surfaces
)

// RegisterRoutes wires the monitor's HTTP surface onto the provided
// Echo instance.  The query surface (snapshot and single seat) and the
// live stream are open; the command endpoints take the rate limiter so
// a misbehaving dashboard cannot hammer the hardware relay.
func RegisterRoutes(e *echo.Echo, seats *handler.SeatHandler, stream *handler.StreamHandler, limiter echo.MiddlewareFunc) {
	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	// Point-in-time queries: ordered snapshot of all seats, and a
	// single seat by id (404 when the id is out of range).
	v1.GET("/seats", seats.ListSeats)
	v1.GET("/seats/:id", seats.GetSeat)
	// Live subscription: WebSocket carrying the snapshot on connect
	// and every notification frame afterwards.
	v1.GET("/seats/stream", stream.Stream)
	// Commands: idempotent toggle and extend.  Both are rate limited.
	v1.POST("/seats/:id/override", seats.OverrideSeat, limiter)
	v1.POST("/seats/:id/extend", seats.ExtendSeat, limiter)
}
