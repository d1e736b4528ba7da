package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"    // optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"seatwatch/internal/config"
	"seatwatch/internal/engine"
	"seatwatch/internal/events"
	"seatwatch/internal/handler"
	"seatwatch/internal/middleware"
	"seatwatch/internal/queue"
	"seatwatch/internal/router"
	"seatwatch/internal/store"
)

func main() {
	_ = godotenv.Load() // absence of a .env file is fine in production
	cfg := config.Load()

	// Core: store, fan-out bus, hardware actuator, engine.  The engine
	// owns its expiry scheduler internally.
	st := store.New(cfg.SeatCount, cfg.SeatTimeout)
	bus := events.NewBus()
	actuator := queue.NewPublisher(cfg.BrokerURL)
	defer actuator.Close()
	eng := engine.New(st, bus, actuator)
	defer eng.Shutdown()

	// Hardware event feed: runs its own reconnect loop until the
	// process exits.  A broker outage degrades to manual-only
	// operation; it never stops the server.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := queue.StartConsumer(ctx, cfg.BrokerURL, eng); err != nil && ctx.Err() == nil {
			log.Printf("seat-consumer stopped: %v", err)
		}
	}()

	// Rate limiter over the command endpoints.  Redis is optional: a
	// nil client turns the limiter into a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, handler.NewSeatHandler(eng), handler.NewStreamHandler(eng, bus), limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, seats=%d, timeout=%s)", addr, cfg.Env, st.Size(), st.Timeout())
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
