package queue

import (
	"context"
	"time"

	"storefront/bot/internal/domain"
)

// Delivery is one update handed to a worker. ID identifies it for Ack and is
// empty for the in-memory queue.
type Delivery struct {
	ID     string
	Update domain.Update
}

// Queue sits between the poller and the workers. Pull returns nil, nil when
// nothing arrived within its wait window.
type Queue interface {
	Push(ctx context.Context, update domain.Update) error
	Pull(ctx context.Context, consumer string) (*Delivery, error)
	Ack(ctx context.Context, delivery *Delivery) error
	// Reclaim takes over deliveries another consumer pulled but has not
	// acknowledged for at least minIdle.
	Reclaim(ctx context.Context, consumer string, minIdle time.Duration) ([]Delivery, error)
}

type memoryQueue struct {
	updates chan domain.Update
	wait    time.Duration
}

// NewMemoryQueue buffers up to size updates; Push blocks while it is full.
func NewMemoryQueue(size int) Queue {
	if size < 1 {
		size = 1
	}
	return &memoryQueue{
		updates: make(chan domain.Update, size),
		wait:    time.Second,
	}
}

func (q *memoryQueue) Push(ctx context.Context, update domain.Update) error {
	select {
	case q.updates <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *memoryQueue) Pull(ctx context.Context, _ string) (*Delivery, error) {
	timer := time.NewTimer(q.wait)
	defer timer.Stop()

	select {
	case update := <-q.updates:
		return &Delivery{Update: update}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}

func (q *memoryQueue) Ack(context.Context, *Delivery) error {
	return nil
}

func (q *memoryQueue) Reclaim(context.Context, string, time.Duration) ([]Delivery, error) {
	return nil, nil
}
