package queue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher relays LED commands to the firmware over the seat.commands
// queue.  Delivery is best effort: every failure is logged as a
// warning and the command is dropped, never queued or retried, so a
// dead hardware link degrades the monitor to manual-only operation
// without ever blocking the engine.  The connection is dialed lazily
// and reused across commands.
type Publisher struct {
	url  string
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher creates a Publisher for the given broker URL.  No
// connection is attempted until the first command.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// SetOccupied publishes an occupancy command for one seat.  This is
// the engine's Actuator implementation.
func (p *Publisher) SetOccupied(ctx context.Context, seatID int, occupied bool) {
	body, err := json.Marshal(OccupancyCommand{SeatID: seatID, Occupied: occupied})
	if err != nil {
		log.Printf("seat-commands: marshal failed: %v", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		log.Printf("seat-commands: hardware link unavailable, dropping command for seat %d: %v", seatID, err)
		return
	}
	pub := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if err := ch.PublishWithContext(ctx, "", commandQueueName, false, false, pub); err != nil {
		log.Printf("seat-commands: publish failed, dropping command for seat %d: %v", seatID, err)
		p.resetLocked() // force a fresh dial on the next command
	}
}

// Close tears down the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// channelLocked returns the cached channel, dialing the broker and
// declaring the command queue on first use or after a reset.  Callers
// must hold p.mu.
func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(commandQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
