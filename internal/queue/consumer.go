package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"seatwatch/internal/engine"
)

const (
	eventQueueName   = "seat.events"
	commandQueueName = "seat.commands"
)

// StartConsumer connects to RabbitMQ, declares the seat.events queue
// (durable) and feeds each occupancy event into the engine.  It runs a
// reconnect loop with exponential backoff and returns only when ctx is
// cancelled.  Malformed payloads and unknown seat ids are logged and
// rejected without requeue, so a bad message can never wedge the feed
// or produce a partial mutation.
func StartConsumer(ctx context.Context, url string, eng *engine.Engine) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("seat-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, eng)
		_ = conn.Close()
		if err == nil {
			return ctx.Err()
		}
		log.Printf("seat-consumer: consume loop ended: %v; reconnecting", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// consumeLoop drains deliveries until the context is cancelled (nil
// return) or the broker connection drops (error return).
func consumeLoop(ctx context.Context, conn *amqp.Connection, eng *engine.Engine) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("seat-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(eventQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(eventQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(d.Body, eng); err != nil {
				log.Printf("seat-consumer: dropping message: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleDelivery parses one occupancy event and applies it.  Errors
// here are per-message: the caller logs and rejects, the feed keeps
// running.
func handleDelivery(body []byte, eng *engine.Engine) error {
	var ev OccupancyEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if _, err := eng.HardwareEvent(ev.SeatID, ev.Occupied); err != nil {
		return fmt.Errorf("seat %d: %w", ev.SeatID, err)
	}
	return nil
}
