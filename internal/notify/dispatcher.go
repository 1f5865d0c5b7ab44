package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher queues messages and sends them from a fixed worker pool.
// Enqueue never blocks; when the queue is full the message is dropped.
type Dispatcher struct {
	sender  Sender
	lg      *zap.Logger
	ch      chan Message
	workers int
	timeout time.Duration
}

func NewDispatcher(sender Sender, lg *zap.Logger, workers int, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		lg:      lg,
		ch:      make(chan Message, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.ch <- msg:
		return true
	default:
		d.lg.Warn("notification queue full, dropping message",
			zap.String("message_id", msg.ID),
			zap.String("to", msg.To),
		)
		return false
	}
}

func (d *Dispatcher) QueueLen() int {
	return len(d.ch)
}

// Run sends queued messages until ctx is cancelled, then flushes what is
// already queued and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case msg := <-d.ch:
					d.send(msg)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()

	for {
		select {
		case msg := <-d.ch:
			d.send(msg)
		default:
			return nil
		}
	}
}

func (d *Dispatcher) send(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.lg.Error("send notification",
			zap.String("message_id", msg.ID),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return
	}
	d.lg.Debug("notification sent", zap.String("message_id", msg.ID))
}
