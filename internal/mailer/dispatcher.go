package mailer

import (
	"context"
	"log"
	"sync"
	"time"
)

const sendTimeout = 30 * time.Second

// Queue accepts confirmation messages for asynchronous delivery. The contract
// is enqueue-and-forget: delivery failure never reaches the enqueuing request.
type Queue interface {
	Enqueue(msg Message)
}

// Dispatcher drains a buffered queue on a background worker, logging delivery
// failures instead of propagating them.
type Dispatcher struct {
	sender Sender
	queue  chan Message
	wg     sync.WaitGroup
}

// NewDispatcher starts the delivery worker.
func NewDispatcher(sender Sender, buffer int) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Message, buffer),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue hands a message to the worker without blocking. When the queue is
// full the message is dropped and logged; the caller's request still succeeds.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		log.Printf("mailer: queue full, dropping confirmation email for %s", msg.To)
	}
}

// Close stops accepting messages and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			log.Printf("mailer: %v", err)
		}
		cancel()
	}
}
